package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"apibase/pkg/requestcontext"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("expected a generated request id in context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id is not a uuid: %q", seen)
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("response header should carry the same id")
	}
}

func TestRequestIDHonorsClientHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "trace-me-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "trace-me-123" {
		t.Fatalf("expected client id in context, got %q", seen)
	}
	if rec.Header().Get("X-Request-Id") != "trace-me-123" {
		t.Fatalf("expected client id echoed on response")
	}
}

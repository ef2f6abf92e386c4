package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"apibase/pkg/apierror"
	"apibase/pkg/sentinel"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

func jsonSyntaxError() error {
	var m map[string]any
	return json.Unmarshal([]byte("{"), &m)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apierror.Code
	}{
		{"typed api error", apierror.New(apierror.CodeForbidden, "nope"), http.StatusForbidden, apierror.CodeForbidden},
		{"typed error wrapped", fmt.Errorf("handler: %w", apierror.Validation()), http.StatusUnprocessableEntity, apierror.CodeValidation},
		{"invalid object id", fmt.Errorf("parse id: %w", primitive.ErrInvalidHex), http.StatusBadRequest, apierror.CodeInvalidID},
		{"pq unique violation", &pq.Error{Code: "23505", Constraint: "users_email_key"}, http.StatusConflict, apierror.CodeDuplicateEntry},
		{"conflict sentinel", fmt.Errorf("create user: %w", sentinel.ErrConflict), http.StatusConflict, apierror.CodeDuplicateEntry},
		{"expired token", fmt.Errorf("verify: %w", jwt.ErrTokenExpired), http.StatusUnauthorized, apierror.CodeTokenExpired},
		{"malformed token", fmt.Errorf("verify: %w", jwt.ErrTokenMalformed), http.StatusUnauthorized, apierror.CodeInvalidToken},
		{"json syntax", jsonSyntaxError(), http.StatusBadRequest, apierror.CodeInvalidJSON},
		{"empty body", io.EOF, http.StatusBadRequest, apierror.CodeInvalidJSON},
		{"multipart too large", multipart.ErrMessageTooLarge, http.StatusBadRequest, apierror.CodeFileTooLarge},
		{"body too large", &http.MaxBytesError{Limit: maxBodyBytes}, http.StatusRequestEntityTooLarge, apierror.CodePayloadTooLarge},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), http.StatusServiceUnavailable, apierror.CodeUnavailable},
		{"unavailable sentinel", sentinel.ErrUnavailable, http.StatusServiceUnavailable, apierror.CodeUnavailable},
		{"timeout", fmt.Errorf("upstream: %w", timeoutError{}), http.StatusGatewayTimeout, apierror.CodeGatewayTimeout},
		{"not found sentinel", fmt.Errorf("find user: %w", sentinel.ErrNotFound), http.StatusNotFound, apierror.CodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, apierror.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, message, _ := Classify(tc.err)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if code != tc.wantCode {
				t.Fatalf("code = %s, want %s", code, tc.wantCode)
			}
			if message == "" {
				t.Fatalf("expected a client-facing message")
			}
		})
	}
}

func TestClassifyPqConstraintDetail(t *testing.T) {
	_, _, _, details := Classify(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	detail, ok := details.(map[string]string)
	if !ok || detail["constraint"] != "users_email_key" {
		t.Fatalf("expected constraint detail, got %#v", details)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeError(t *testing.T, production bool, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	ew := NewErrorWriter(discardLogger(), production)
	rec := httptest.NewRecorder()
	ew.Write(rec, httptest.NewRequest(http.MethodGet, "/x", nil), err)

	var env Envelope
	if decErr := json.NewDecoder(rec.Body).Decode(&env); decErr != nil {
		t.Fatalf("decode envelope: %v", decErr)
	}
	if env.Success {
		t.Fatalf("expected success=false")
	}
	return rec, env
}

func TestErrorWriterDevelopmentIncludesStack(t *testing.T) {
	rec, env := writeError(t, false, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.Error.Stack == "" {
		t.Fatalf("expected stack trace outside production")
	}
	if env.Error.Message != "Internal server error" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestErrorWriterProductionSuppressesInternalDetail(t *testing.T) {
	detail := map[string]string{"query": "SELECT secret"}
	_, env := writeError(t, true, apierror.New(apierror.CodeInternal, "db exploded").WithDetails(detail))

	if env.Error.Message != "An error occurred while processing your request" {
		t.Fatalf("expected generic message, got %q", env.Error.Message)
	}
	if env.Error.Details != nil {
		t.Fatalf("expected details suppressed, got %#v", env.Error.Details)
	}
	if env.Error.Stack != "" {
		t.Fatalf("expected no stack in production")
	}
}

func TestErrorWriterProductionKeepsClientErrorDetail(t *testing.T) {
	rec, env := writeError(t, true, apierror.Validation(
		apierror.FieldError{Field: "email", Message: "must be a valid email address"},
	))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if env.Error.Message != "Validation failed" {
		t.Fatalf("4xx messages must survive production mode, got %q", env.Error.Message)
	}
	if env.Error.Details == nil {
		t.Fatalf("4xx details must survive production mode")
	}
}

func TestErrorWriterSkipsStartedResponses(t *testing.T) {
	ew := NewErrorWriter(discardLogger(), false)
	rec := httptest.NewRecorder()
	ww := middleware.NewWrapResponseWriter(rec, 1)

	ww.WriteHeader(http.StatusOK)
	if _, err := ww.Write([]byte("partial")); err != nil {
		t.Fatalf("write: %v", err)
	}
	ew.Write(ww, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("late failure"))

	if body := rec.Body.String(); body != "partial" {
		t.Fatalf("expected response left untouched, got %q", body)
	}
}

func TestDecodeRejectsOversizedBody(t *testing.T) {
	big := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()

	_, err := Decode[struct {
		Email string `json:"email"`
	}](rec, req)
	if err == nil {
		t.Fatalf("expected error for oversized body")
	}
	status, code, _, _ := Classify(err)
	if status != http.StatusRequestEntityTooLarge || code != apierror.CodePayloadTooLarge {
		t.Fatalf("expected 413 PAYLOAD_TOO_LARGE, got %d %s", status, code)
	}
}

func TestDecodeValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()

	payload, err := Decode[struct {
		Email string `json:"email"`
	}](rec, req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Email != "a@b.c" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

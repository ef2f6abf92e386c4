package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"apibase/internal/jwttoken"
	"apibase/pkg/apierror"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

type fakeVerifier struct {
	claims *jwttoken.Claims
	err    error
}

func (f fakeVerifier) Verify(string) (*jwttoken.Claims, error) {
	return f.claims, f.err
}

func guardedHandler(verifier TokenVerifier, inner http.HandlerFunc) http.Handler {
	ew := httputil.NewErrorWriter(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	return RequireAuth(verifier, ew)(inner)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env httputil.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return string(env.Error.Code)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	handler := guardedHandler(fakeVerifier{}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %q", code)
	}
}

func TestRequireAuthNonBearerScheme(t *testing.T) {
	handler := guardedHandler(fakeVerifier{}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a basic auth header")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthVerifierErrorPassedThrough(t *testing.T) {
	handler := guardedHandler(
		fakeVerifier{err: apierror.Wrap(apierror.CodeTokenExpired, "Authentication token has expired", jwt.ErrTokenExpired)},
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run with an expired token")
		},
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "TOKEN_EXPIRED" {
		t.Fatalf("expected TOKEN_EXPIRED, got %q", code)
	}
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	claims := &jwttoken.Claims{Email: "ann@example.com"}
	claims.Subject = "user-1"
	claims.Issuer = "apibase"

	var gotUserID string
	var gotClaims map[string]any
	handler := guardedHandler(fakeVerifier{claims: claims}, func(w http.ResponseWriter, r *http.Request) {
		gotUserID = requestcontext.UserID(r.Context())
		gotClaims = requestcontext.Claims(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Fatalf("expected user id in context, got %q", gotUserID)
	}
	if gotClaims["email"] != "ann@example.com" || gotClaims["iss"] != "apibase" {
		t.Fatalf("unexpected claims payload: %v", gotClaims)
	}
}

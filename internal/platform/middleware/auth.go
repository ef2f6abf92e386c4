package middleware

import (
	"net/http"
	"strings"

	"apibase/internal/jwttoken"
	"apibase/pkg/apierror"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*jwttoken.Claims, error)
}

// RequireAuth gates a route behind a valid bearer token. On success the
// decoded claims land in the request context; on failure the request ends
// with a 401 whose code distinguishes missing, expired and invalid tokens.
// One verification per request, nothing cached across requests.
func RequireAuth(verifier TokenVerifier, ew *httputil.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				ew.Write(w, r, apierror.New(apierror.CodeUnauthorized, "No authentication token provided"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				ew.Write(w, r, err)
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), claims.Subject)
			ctx = requestcontext.WithClaims(ctx, claimsPayload(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// claimsPayload flattens token claims for the /auth/me response.
func claimsPayload(claims *jwttoken.Claims) map[string]any {
	payload := map[string]any{
		"id":    claims.Subject,
		"email": claims.Email,
	}
	if claims.IssuedAt != nil {
		payload["iat"] = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		payload["exp"] = claims.ExpiresAt.Unix()
	}
	if claims.Issuer != "" {
		payload["iss"] = claims.Issuer
	}
	return payload
}

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"apibase/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID honors an incoming X-Request-Id header, generates one otherwise,
// and echoes it back on the response. Must run before any middleware that
// logs, since log lines reference the id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"apibase/pkg/apierror"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

// Recoverer converts handler panics into 500 envelopes through the shared
// error writer. It wraps the response writer so the writer can tell whether
// the response already started and avoid a double send.
func Recoverer(ew *httputil.ErrorWriter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "handler panic",
						"request_id", requestcontext.RequestID(r.Context()),
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					ew.Write(ww, r, apierror.Wrap(apierror.CodeInternal, "Internal server error",
						fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

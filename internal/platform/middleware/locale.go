package middleware

import (
	"net/http"

	"apibase/internal/platform/i18n"
	"apibase/pkg/requestcontext"
)

// Locale negotiates the response language from Accept-Language and stores it
// in the request context.
func Locale(catalog *i18n.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := catalog.Match(r.Header.Get("Accept-Language"))
			ctx := requestcontext.WithLocale(r.Context(), tag)
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Package httptransport assembles the HTTP surface: middleware chain, route
// registration, and the catch-all 404.
package httptransport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "apibase/internal/auth/handler"
	"apibase/internal/health"
	"apibase/internal/jwttoken"
	"apibase/internal/platform/features"
	"apibase/internal/platform/i18n"
	"apibase/internal/platform/metrics"
	"apibase/internal/platform/middleware"
	"apibase/internal/uploads"
	"apibase/pkg/apierror"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

// Deps carries everything the router needs. Auth and Uploads may be nil when
// their features are disabled; the routes are then simply not mounted.
type Deps struct {
	Flags   features.Features
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Errors  *httputil.ErrorWriter
	I18n    *i18n.Catalog
	Tokens  *jwttoken.Service

	Health  *health.Handler
	Auth    *authhandler.Handler
	Uploads *uploads.Handler
}

// NewRouter builds the full middleware chain and mounts every enabled route.
// The ordering matters: identity and metadata middleware run before logging
// so every log line carries a request id, and the recoverer sits innermost so
// handler panics are converted after the observability layers are in place.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "Accept-Language"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	if d.Flags.Logging {
		r.Use(middleware.RequestLogger(d.Logger))
	}
	r.Use(middleware.Metrics(d.Metrics))
	if d.Flags.I18n {
		r.Use(middleware.Locale(d.I18n))
	}
	r.Use(middleware.Recoverer(d.Errors, d.Logger))

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	if d.Auth != nil {
		d.Auth.Register(r)
	}
	if d.Uploads != nil {
		d.Uploads.Register(r, middleware.RequireAuth(d.Tokens, d.Errors))
	}

	r.NotFound(d.handleNotFound)
	r.MethodNotAllowed(d.handleNotFound)

	return r
}

// handleNotFound answers every unmatched route or method with a 404 envelope,
// localized when i18n is on.
func (d Deps) handleNotFound(w http.ResponseWriter, r *http.Request) {
	message := "Resource not found"
	if d.Flags.I18n && d.I18n != nil {
		message = d.I18n.T(requestcontext.Locale(r.Context()), "error.not_found")
	}

	err := apierror.New(apierror.CodeNotFound, message).WithDetails(map[string]string{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	d.Errors.Write(w, r, fmt.Errorf("route %s %s: %w", r.Method, r.URL.Path, err))
}

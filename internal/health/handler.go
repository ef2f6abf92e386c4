// Package health exposes the liveness endpoint, including reachability of
// whichever backends are enabled.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"apibase/internal/platform/config"
	"apibase/pkg/httputil"
)

// Pinger is any backend that can report reachability.
type Pinger func(ctx context.Context) error

// Handler serves GET /health.
type Handler struct {
	logger  *slog.Logger
	started time.Time
	checks  map[string]Pinger
}

// New constructs the handler. checks maps a backend name to its ping; only
// enabled backends should be registered.
func New(logger *slog.Logger, checks map[string]Pinger) *Handler {
	return &Handler{
		logger:  logger,
		started: time.Now(),
		checks:  checks,
	}
}

// Register mounts the health endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
}

type response struct {
	Status  string  `json:"status"`
	Uptime  float64 `json:"uptime"`
	Version string  `json:"version"`
}

// HandleHealth reports ok with uptime and version, degrading to 503 when an
// enabled backend fails its ping.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := response{
		Status:  "ok",
		Uptime:  time.Since(h.started).Seconds(),
		Version: config.Version,
	}

	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "backend", name, "error", err)
			status = http.StatusServiceUnavailable
			body.Status = "unavailable"
			break
		}
	}

	httputil.WriteJSON(w, status, body)
}

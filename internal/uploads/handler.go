// Package uploads hands out presigned object-store URLs to authenticated
// users.
package uploads

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"apibase/internal/objectstore"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

// Handler serves POST /uploads/presign.
type Handler struct {
	store  *objectstore.Client
	logger *slog.Logger
	errors *httputil.ErrorWriter
}

// New constructs the uploads handler.
func New(store *objectstore.Client, logger *slog.Logger, ew *httputil.ErrorWriter) *Handler {
	return &Handler{store: store, logger: logger, errors: ew}
}

// Register mounts the upload endpoints behind the given auth guard.
func (h *Handler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.With(guard).Post("/uploads/presign", h.HandlePresign)
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// HandlePresign returns a key and a time-limited URL the client PUTs the
// object to directly; file bytes never transit this service.
func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, url, err := h.store.PresignPut(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "upload presigned",
		"request_id", requestcontext.RequestID(ctx),
		"key", key,
	)
	httputil.WriteJSON(w, http.StatusCreated, presignResponse{Key: key, URL: url})
}

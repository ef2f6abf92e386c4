// Package handler wires the auth endpoints to the user service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"apibase/internal/jwttoken"
	"apibase/internal/platform/metrics"
	"apibase/internal/platform/middleware"
	"apibase/internal/user"
	"apibase/pkg/apierror"
	"apibase/pkg/httputil"
	"apibase/pkg/requestcontext"
)

// UserService is the slice of the user service the auth endpoints need.
type UserService interface {
	Register(ctx context.Context, email, password string) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
}

// Handler serves /auth. A nil users service means no persistence backend is
// active; credential endpoints then answer 501.
type Handler struct {
	users   UserService
	tokens  *jwttoken.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	errors  *httputil.ErrorWriter
}

// New constructs the auth handler.
func New(users UserService, tokens *jwttoken.Service, logger *slog.Logger,
	m *metrics.Metrics, ew *httputil.ErrorWriter) *Handler {
	return &Handler{
		users:   users,
		tokens:  tokens,
		logger:  logger,
		metrics: m,
		errors:  ew,
	}
}

// Register mounts the auth endpoints. /auth/me sits behind the JWT guard.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
	r.With(middleware.RequireAuth(h.tokens, h.errors)).Get("/auth/me", h.HandleMe)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		h.errors.Write(w, r, apierror.New(apierror.CodeNotEnabled, "Authentication backend not enabled"))
		return
	}

	req, err := httputil.Decode[credentialsRequest](w, r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	token, err := h.tokens.Generate(u.ID, u.Email, requestcontext.Now(ctx))
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	if h.users == nil {
		h.errors.Write(w, r, apierror.New(apierror.CodeNotEnabled, "Registration not enabled"))
		return
	}

	req, err := httputil.Decode[credentialsRequest](w, r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	u, err := h.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.metrics.UsersCreated.Inc()
	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{ID: u.ID, Email: u.Email})
}

// HandleMe handles GET /auth/me, returning the decoded token claims the
// guard attached.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := requestcontext.Claims(r.Context())
	if claims == nil {
		// Route misconfiguration; the guard should have rejected already.
		h.errors.Write(w, r, apierror.New(apierror.CodeUnauthorized, "No authentication token provided"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claims)
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/stitchbook/stitchbook/internal/platform/httpx"
	"github.com/stitchbook/stitchbook/internal/rbac"
	"github.com/stitchbook/stitchbook/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbac           rbac.Middleware
	validator      *validator.Validate
	loginLimit     int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts
// per IP per minute; zero disables the cap.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbac rbac.Middleware, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		rbac:           rbac,
		validator:      shared.NewValidator(),
		loginLimit:     loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/csrf", h.csrfToken)
		login := r.With()
		if h.loginLimit > 0 {
			login = r.With(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		login.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.With(h.rbac.RequireAuth).Get("/me", h.me)
	})
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidationFromValidator(h.validator.Struct(in)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}

	user, err := h.service.Authenticate(r.Context(), in.Username, in.Password)
	if err != nil {
		h.logger.Info("login rejected", slog.String("username", in.Username), slog.String("ip", r.RemoteAddr))
		httpx.RespondError(w, err)
		return
	}

	// Fresh id and token after privilege change.
	h.sessionManager.Renew(sess)
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	sess.Delete(shared.CSRFSessionKey)
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user signed in", slog.Int64("user_id", user.ID), slog.String("role", user.Role))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user": Me{
			ID:          user.ID,
			Username:    user.Username,
			Role:        user.Role,
			Permissions: shared.RolePermissions(user.Role),
		},
		"csrfToken": token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, Me{
		ID:          actor.ID,
		Username:    actor.Username,
		Role:        actor.Role,
		Permissions: shared.RolePermissions(actor.Role),
	})
}

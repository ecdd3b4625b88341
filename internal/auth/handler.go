package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  *Service
	users    user.Repository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, users user.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		users:    users,
		validate: httputil.NewValidator(),
		logger:   logger,
	}
}

// RegisterRoutes mounts /auth. Callers add rate limiting around it.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		// Suspended accounts may still read their own record.
		r.With(Authenticate(h.service.Tokens(), h.logger)).Get("/me", h.Me)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	SetAuthCookie(w, resp.Token, resp.ExpiresAt)
	httputil.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, httputil.ValidationMessage(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "user_id", resp.User.ID)
	SetAuthCookie(w, resp.Token, resp.ExpiresAt)
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	u, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httputil.RespondWithError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidRegistration):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAccountSuspended):
		httputil.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, user.ErrEmailExists):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

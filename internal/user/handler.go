package user

import (
	"errors"
	"log/slog"
	"net/http"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: httputil.NewValidator(),
		logger:   logger,
	}
}

// RegisterRoutes expects to be mounted behind authentication.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Use(identity.RequireActive)
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireRoles(identity.RoleAdmin))
			r.Get("/", h.ListUsers)
			r.Patch("/{id}/role", h.ChangeRole)
			r.Patch("/{id}/mentor", h.AssignMentor)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	u, err := h.service.GetByID(r.Context(), p.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, httputil.ValidationMessage(err))
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), p.UserID, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	filter := ListFilter{Page: page.Page, Limit: page.Limit}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := identity.NormalizeRole(raw)
		if !ok {
			httputil.RespondWithError(w, http.StatusBadRequest, ErrInvalidRole.Error())
			return
		}
		filter.Role = role
	}

	users, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(users),
		"total":   total,
		"page":    page.Page,
		"pages":   pagination.Pages(total, page.Limit),
		"data":    users,
	})
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req ChangeRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, httputil.ValidationMessage(err))
		return
	}

	u, err := h.service.ChangeRole(r.Context(), p, id, req.Role)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (h *Handler) AssignMentor(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req AssignMentorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, httputil.ValidationMessage(err))
		return
	}

	u, err := h.service.AssignMentor(r.Context(), id, req.MentorID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, ErrUserNotFound.Error())
	case errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrSelfRoleChange),
		errors.Is(err, ErrInvalidMentor),
		errors.Is(err, ErrNotAnIntern),
		errors.Is(err, ErrInvalidProfile):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "user request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

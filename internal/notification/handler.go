package notification

import (
	"errors"
	"log/slog"
	"net/http"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/pagination"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes expects to be mounted behind authentication.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/notifications", func(r chi.Router) {
		r.Use(identity.RequireActive)
		r.Get("/", h.List)
		r.Get("/count", h.Count)
		r.Patch("/read-all", h.MarkAllRead)
		r.Patch("/{id}/read", h.MarkRead)
		r.With(identity.RequireRoles(identity.RoleAdmin)).Post("/", h.Create)
	})
}

func parseStatus(r *http.Request) (unreadOnly bool, ok bool) {
	switch r.URL.Query().Get("status") {
	case "", "all":
		return false, true
	case "unread":
		return true, true
	default:
		return false, false
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	unreadOnly, ok := parseStatus(r)
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "status must be all or unread")
		return
	}
	page := pagination.FromRequest(r)

	items, total, err := h.service.List(r.Context(), p, ListFilter{UnreadOnly: unreadOnly, Page: page.Page, Limit: page.Limit})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(items),
		"total":   total,
		"page":    page.Page,
		"pages":   pagination.Pages(total, page.Limit),
		"data":    items,
	})
}

// Count only supports unread counts, which is what the navbar badge polls.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	if status := r.URL.Query().Get("status"); status != "" && status != "unread" {
		httputil.RespondWithError(w, http.StatusBadRequest, "status must be unread")
		return
	}

	n, err := h.service.CountUnread(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "unread": n})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	n, err := h.service.MarkRead(r.Context(), p, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": n})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	marked, err := h.service.MarkAllRead(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "marked": marked})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "data": n})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		httputil.RespondWithError(w, http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrInvalidNotification):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "notification request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

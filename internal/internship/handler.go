package internship

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/pagination"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service      Service
	authenticate func(http.Handler) http.Handler
	logger       *slog.Logger
}

// NewHandler takes the authentication middleware because reads are public
// while writes are not.
func NewHandler(service Service, authenticate func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		authenticate: authenticate,
		logger:       logger,
	}
}

// RegisterRoutes mounts /internships. nested lets other packages add routes
// under the same prefix, such as the apply endpoint.
func (h *Handler) RegisterRoutes(router chi.Router, nested ...func(chi.Router)) {
	router.Route("/internships", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Use(identity.RequireRoles(identity.RoleMentor, identity.RoleAdmin))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})

		for _, fn := range nested {
			fn(r)
		}
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	query := r.URL.Query()
	filter := ListFilter{
		Search: query.Get("search"),
		Page:   page.Page,
		Limit:  page.Limit,
	}
	if raw := query.Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := query.Get("postedBy"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid postedBy filter")
			return
		}
		filter.PostedBy = id
	}

	items, total, err := h.service.List(r.Context(), filter)
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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid internship id")
		return
	}

	i, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": i})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	i, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusCreated, map[string]any{"success": true, "data": i})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid internship id")
		return
	}
	var req UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	i, err := h.service.Update(r.Context(), p, id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": i})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid internship id")
		return
	}

	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		httputil.RespondWithError(w, http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrInvalidInternship):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "internship request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

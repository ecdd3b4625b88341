package application

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/internship"
	"internship-service/internal/pagination"
	"internship-service/internal/resume"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service      Service
	authenticate func(http.Handler) http.Handler
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewHandler(service Service, authenticate func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		authenticate: authenticate,
		validate:     httputil.NewValidator(),
		logger:       logger,
	}
}

// RegisterRoutes expects to be mounted behind authentication.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/applications", func(r chi.Router) {
		r.Use(identity.RequireActive)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/resume", h.DownloadResume)
		r.Patch("/{id}/status", h.Transition)
		r.With(identity.RequireRoles(identity.RoleAdmin)).Patch("/{id}/mentor", h.AssignMentor)
	})
}

// RegisterApplyRoute adds POST /{id}/apply to the internships router.
func (h *Handler) RegisterApplyRoute(r chi.Router) {
	r.With(h.authenticate, identity.RequireRoles(identity.RoleIntern)).Post("/{id}/apply", h.Apply)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid internship id")
		return
	}

	var (
		file     io.Reader
		filename string
	)
	rc, name, err := resume.FromRequest(w, r)
	switch {
	case err == nil:
		defer rc.Close()
		file, filename = rc, name
	case errors.Is(err, resume.ErrMissing):
		// Reported after the posting lookup so a missing posting wins.
	default:
		h.handleServiceError(w, r, errors.Join(ErrInvalidApplication, err))
		return
	}

	a, err := h.service.Apply(r.Context(), p, id, r.FormValue("coverLetter"), filename, file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": a})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	page := pagination.FromRequest(r)
	query := r.URL.Query()

	filter := ListFilter{Page: page.Page, Limit: page.Limit}
	if raw := query.Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := query.Get("internshipId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			httputil.RespondWithError(w, http.StatusBadRequest, "invalid internshipId filter")
			return
		}
		filter.InternshipID = id
	}

	items, total, err := h.service.List(r.Context(), p, filter)
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
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid application id")
		return
	}

	a, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": a})
}

func (h *Handler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid application id")
		return
	}

	rc, name, err := h.service.OpenResume(r.Context(), p, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", `attachment; filename="resume`+filepath.Ext(name)+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "resume download interrupted", "application_id", id, "error", err)
	}
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	var req TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Transition(r.Context(), p, id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": a})
}

func (h *Handler) AssignMentor(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	id, err := httputil.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid application id")
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

	a, err := h.service.AssignMentor(r.Context(), p, id, req.MentorID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": a})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, internship.ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, internship.ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		httputil.RespondWithError(w, http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrDuplicateApplication), errors.Is(err, ErrStaleStatus):
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidApplication),
		errors.Is(err, ErrInternshipClosed),
		errors.Is(err, ErrInvalidMentor):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "application request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

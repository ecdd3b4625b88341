// Package stats serves the public catalogue summary and the reviewer-only
// application breakdown.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"internship-service/internal/application"
	"internship-service/internal/httputil"
	"internship-service/internal/identity"
	"internship-service/internal/internship"

	"github.com/go-chi/chi/v5"
)

type InternshipCounter interface {
	Stats(ctx context.Context) (*internship.Stats, error)
}

type ApplicationCounter interface {
	Stats(ctx context.Context, actor identity.Principal) (*application.Stats, error)
}

type Handler struct {
	internships  InternshipCounter
	applications ApplicationCounter
	authenticate func(http.Handler) http.Handler
	logger       *slog.Logger
}

func NewHandler(internships InternshipCounter, applications ApplicationCounter, authenticate func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		internships:  internships,
		applications: applications,
		authenticate: authenticate,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/stats", func(r chi.Router) {
		r.Get("/internships", h.Internships)
		r.With(h.authenticate, identity.RequireRoles(identity.RoleMentor, identity.RoleAdmin)).
			Get("/applications", h.Applications)
	})
}

func (h *Handler) Internships(w http.ResponseWriter, r *http.Request) {
	stats, err := h.internships.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to count internships", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

// Applications is scoped like the application list: mentors see their own
// postings and assignments, admins see everything.
func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	stats, err := h.applications.Stats(r.Context(), p)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to count applications", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"internship-service/internal/httputil"
	"internship-service/internal/identity"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes expects to be mounted behind authentication.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.With(identity.RequireActive).Get("/dashboard", h.Get)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), p)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to build dashboard", "user_id", p.UserID, "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"success": true, "data": summary})
}

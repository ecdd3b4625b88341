package health

import (
	"net/http"

	"internship-service/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	checker *Checker
	version string
}

func NewHandler(checker *Checker, version string) *Handler {
	return &Handler{checker: checker, version: version}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: h.version})
}

// Ready probes dependencies on every call and answers 503 when any is down.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Run(r.Context())
	if !report.Ready {
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, report)
}

package app

import (
	"log/slog"
	"net/http"
	"time"

	"internship-service/internal/application"
	"internship-service/internal/auth"
	"internship-service/internal/dashboard"
	"internship-service/internal/health"
	"internship-service/internal/internship"
	"internship-service/internal/metrics"
	"internship-service/internal/middleware"
	"internship-service/internal/notification"
	"internship-service/internal/stats"
	"internship-service/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type handlers struct {
	health        *health.Handler
	auth          *auth.Handler
	users         *user.Handler
	internships   *internship.Handler
	applications  *application.Handler
	notifications *notification.Handler
	stats         *stats.Handler
	dashboard     *dashboard.Handler
}

type routerOptions struct {
	authenticate func(http.Handler) http.Handler
	limiter      middleware.Limiter
	authLimit    int
	authWindow   time.Duration
	corsOrigins  []string
	// clientIP keys the auth rate limit; nil means the socket peer.
	clientIP func(*http.Request) string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func newRouter(h handlers, opts routerOptions) chi.Router {
	clientIP := opts.clientIP
	if clientIP == nil {
		clientIP = middleware.ClientIP
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestLogger(opts.logger))
	router.Use(middleware.CORS(opts.corsOrigins))

	// Probes stay outside /api so they never hit auth or rate limits.
	h.health.RegisterRoutes(router)

	router.Route("/api", func(api chi.Router) {
		api.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.limiter, clientIP, opts.authLimit, opts.authWindow, opts.metrics))
			h.auth.RegisterRoutes(r)
		})

		h.internships.RegisterRoutes(api, h.applications.RegisterApplyRoute)
		h.stats.RegisterRoutes(api)

		api.Group(func(r chi.Router) {
			r.Use(opts.authenticate)
			h.users.RegisterRoutes(r)
			h.applications.RegisterRoutes(r)
			h.notifications.RegisterRoutes(r)
			h.dashboard.RegisterRoutes(r)
		})
	})

	return router
}

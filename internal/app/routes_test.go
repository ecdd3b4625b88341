package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"internship-service/internal/application"
	"internship-service/internal/auth"
	"internship-service/internal/config"
	"internship-service/internal/dashboard"
	"internship-service/internal/health"
	"internship-service/internal/internship"
	"internship-service/internal/messaging"
	"internship-service/internal/metrics"
	"internship-service/internal/middleware"
	"internship-service/internal/notification"
	"internship-service/internal/resume"
	"internship-service/internal/stats"
	"internship-service/internal/testing/memstore"
	"internship-service/internal/user"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, authLimit int) (http.Handler, *memstore.Internships) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewMock()

	users := memstore.NewUsers()
	postings := memstore.NewInternships()
	apps := memstore.NewApplications(postings)
	notices := memstore.NewNotifications()

	resumes, err := resume.NewStore(afero.NewMemMapFs(), "uploads", logger)
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret", time.Hour)
	authenticate := auth.Authenticate(tokens, logger)
	authService := auth.NewService(users, tokens, logger, m)
	events := messaging.NewEmitter(memstore.NewEvents(), config.EventsConfig{}, logger, m)

	internshipService := internship.NewService(postings, events, logger, m)
	notificationService := notification.NewService(notices, logger, m)
	applicationService := application.NewService(application.Deps{
		Repo:     apps,
		Postings: postings,
		Users:    users,
		Notifier: notificationService,
		Mailer:   memstore.NewMailbox(),
		Resumes:  resumes,
		Events:   events,
		Logger:   logger,
		Metrics:  m,
	})
	checker := health.NewChecker(m, logger)

	router := newRouter(handlers{
		health:        health.NewHandler(checker, "test"),
		auth:          auth.NewHandler(authService, users, logger),
		users:         user.NewHandler(user.NewService(users, logger), logger),
		internships:   internship.NewHandler(internshipService, authenticate, logger),
		applications:  application.NewHandler(applicationService, authenticate, logger),
		notifications: notification.NewHandler(notificationService, logger),
		stats:         stats.NewHandler(internshipService, applicationService, authenticate, logger),
		dashboard:     dashboard.NewHandler(dashboard.NewService(postings, apps, notices, users, logger), logger),
	}, routerOptions{
		authenticate: authenticate,
		limiter:      middleware.NewRateLimiter(),
		authLimit:    authLimit,
		authWindow:   time.Minute,
		corsOrigins:  []string{"http://localhost:3000"},
		logger:       logger,
		metrics:      m,
	})
	return router, postings
}

func do(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, router http.Handler, req auth.RegisterRequest) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/auth/register", req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp auth.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	router, postings := setupRouter(t, 0)
	postings.Put(internship.Internship{ID: 1, Title: "Backend Intern", Company: "Acme", PostedBy: 99, Status: internship.StatusOpen})

	token := register(t, router, auth.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret1", Role: "intern", University: "IIT",
	})

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "ready without dependencies", method: http.MethodGet, path: "/ready", expectedStatus: http.StatusOK},
		{name: "public catalogue", method: http.MethodGet, path: "/api/internships", expectedStatus: http.StatusOK},
		{name: "public posting", method: http.MethodGet, path: "/api/internships/1", expectedStatus: http.StatusOK},
		{name: "public stats", method: http.MethodGet, path: "/api/stats/internships", expectedStatus: http.StatusOK},
		{name: "profile needs token", method: http.MethodGet, path: "/api/users/me", expectedStatus: http.StatusUnauthorized},
		{name: "profile", method: http.MethodGet, path: "/api/users/me", token: token, expectedStatus: http.StatusOK},
		{name: "dashboard needs token", method: http.MethodGet, path: "/api/dashboard", expectedStatus: http.StatusUnauthorized},
		{name: "dashboard", method: http.MethodGet, path: "/api/dashboard", token: token, expectedStatus: http.StatusOK},
		{name: "notifications", method: http.MethodGet, path: "/api/notifications", token: token, expectedStatus: http.StatusOK},
		{name: "own applications", method: http.MethodGet, path: "/api/applications", token: token, expectedStatus: http.StatusOK},
		{name: "apply needs token", method: http.MethodPost, path: "/api/internships/1/apply", expectedStatus: http.StatusUnauthorized},
		{name: "intern cannot post", method: http.MethodPost, path: "/api/internships", token: token, expectedStatus: http.StatusForbidden},
		{name: "application stats need reviewer", method: http.MethodGet, path: "/api/stats/applications", token: token, expectedStatus: http.StatusForbidden},
		{name: "admin routes", method: http.MethodGet, path: "/api/users", token: token, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	router, _ := setupRouter(t, 2)
	login := auth.LoginRequest{Email: "ghost@example.com", Password: "secret1"}

	for range 2 {
		w := do(t, router, http.MethodPost, "/api/auth/login", login, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := do(t, router, http.MethodPost, "/api/auth/login", login, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/internships", nil, "").Code)
}

func TestRouter_AuthRateLimitIgnoresForwardedFor(t *testing.T) {
	router, _ := setupRouter(t, 2)
	login := auth.LoginRequest{Email: "ghost@example.com", Password: "secret1"}

	limited := 0
	for i := range 10 {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(login))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", &buf)
		req.RemoteAddr = "10.0.0.1:51234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 8, limited)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := setupRouter(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/internships", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"internship-service/internal/application"
	"internship-service/internal/auth"
	"internship-service/internal/config"
	"internship-service/internal/dashboard"
	"internship-service/internal/db"
	"internship-service/internal/health"
	"internship-service/internal/internship"
	"internship-service/internal/logger"
	"internship-service/internal/mailer"
	"internship-service/internal/messaging"
	"internship-service/internal/middleware"
	"internship-service/internal/notification"
	"internship-service/internal/resume"
	"internship-service/internal/stats"
	"internship-service/internal/telemetry"
	"internship-service/internal/user"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

const healthCheckInterval = 15 * time.Second

type App struct {
	config    *config.Config
	router    http.Handler
	server    *http.Server
	grpc      *health.GRPCServer
	checker   *health.Checker
	db        *bun.DB
	redis     *redis.Client
	events    *messaging.Emitter
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env)
	slog.SetDefault(slogLogger)
	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit, "built", BuildTime)

	app := &App{
		config: cfg,
		logger: slogLogger,
	}

	app.telemetry, err = telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	m := app.telemetry.Metrics

	app.db, err = db.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := m.Database.RegisterPool(app.db.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register connection pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, app.db,
		(*user.User)(nil),
		(*internship.Internship)(nil),
		(*application.Application)(nil),
		(*notification.Notification)(nil),
		(*notification.Read)(nil),
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var indexes []db.Index
	indexes = append(indexes, internship.Indexes...)
	indexes = append(indexes, application.Indexes...)
	indexes = append(indexes, notification.Indexes...)
	if err := db.CreateIndexes(ctx, app.db, indexes...); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	// Rate limits are shared through redis when it is configured.
	var limiter middleware.Limiter = middleware.NewRateLimiter()
	if cfg.Redis.URL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			slogLogger.Warn("redis unavailable, using in-process rate limiter", "error", err)
		} else {
			app.redis = client
			limiter = middleware.NewRedisLimiter(client, slogLogger)
			slogLogger.Info("redis rate limiter initialized")
		}
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	publisher, err := messaging.NewPublisher(ctx, cfg.Events, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize event publisher, events are dropped", "driver", cfg.Events.Driver, "error", err)
		publisher = messaging.NoopPublisher{}
	}
	app.events = messaging.NewEmitter(publisher, cfg.Events, slogLogger, m)

	mail, err := mailer.New(cfg.SMTP, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize smtp mailer, emails will only be logged", "error", err)
		mail = mailer.NewNoop(slogLogger)
	}

	resumes, err := resume.NewStore(afero.NewOsFs(), cfg.Uploads.Dir, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	userRepo := user.NewRepository(app.db, m)
	internshipRepo := internship.NewRepository(app.db, m)
	applicationRepo := application.NewRepository(app.db, m)
	notificationRepo := notification.NewRepository(app.db, m)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.NewService(userRepo, tokens, slogLogger, m)
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}
	authenticate := auth.Authenticate(tokens, slogLogger)

	userService := user.NewService(userRepo, slogLogger)
	internshipService := internship.NewService(internshipRepo, app.events, slogLogger, m)
	notificationService := notification.NewService(notificationRepo, slogLogger, m)
	applicationService := application.NewService(application.Deps{
		Repo:     applicationRepo,
		Postings: internshipRepo,
		Users:    userRepo,
		Notifier: notificationService,
		Mailer:   mail,
		Resumes:  resumes,
		Events:   app.events,
		Logger:   slogLogger,
		Metrics:  m,
	})
	dashboardService := dashboard.NewService(internshipRepo, applicationRepo, notificationRepo, userRepo, slogLogger)

	checks := []health.Check{{Name: "postgres", Ping: app.db.PingContext}}
	if app.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}})
	}
	app.checker = health.NewChecker(m, slogLogger, checks...)
	if cfg.Grpc.Port != "" {
		app.grpc = health.NewGRPCServer(app.checker, slogLogger)
	}

	app.router = newRouter(handlers{
		health:        health.NewHandler(app.checker, Version),
		auth:          auth.NewHandler(authService, userRepo, slogLogger),
		users:         user.NewHandler(userService, slogLogger),
		internships:   internship.NewHandler(internshipService, authenticate, slogLogger),
		applications:  application.NewHandler(applicationService, authenticate, slogLogger),
		notifications: notification.NewHandler(notificationService, slogLogger),
		stats:         stats.NewHandler(internshipService, applicationService, authenticate, slogLogger),
		dashboard:     dashboard.NewHandler(dashboardService, slogLogger),
	}, routerOptions{
		authenticate: authenticate,
		limiter:      limiter,
		authLimit:    cfg.Auth.RateLimit,
		authWindow:   cfg.Auth.RateLimitWindow,
		corsOrigins:  cfg.Server.CORSOrigins,
		clientIP:     middleware.TrustedClientIP(trustedProxies),
		logger:       slogLogger,
		metrics:      m,
	})

	slogLogger.Info("application initialized successfully")
	return app, nil
}

// StartHealthChecks re-runs the dependency checks until ctx is done and
// mirrors readiness on the gRPC health service when it is enabled.
func (a *App) StartHealthChecks(ctx context.Context) {
	if a.grpc != nil {
		a.grpc.StartHealthChecks(ctx, healthCheckInterval)
		return
	}
	a.checker.Watch(ctx, healthCheckInterval, nil)
}

// Run serves HTTP until Shutdown. The gRPC health server, when configured,
// runs alongside it.
func (a *App) Run() error {
	if a.grpc != nil {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.config.Grpc.Port))
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		go func() {
			if err := a.grpc.Serve(lis); err != nil {
				a.logger.Error("gRPC health server error", "error", err)
			}
		}()
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if a.grpc != nil {
		a.grpc.Stop()
	}
	if err := a.events.Close(); err != nil {
		a.logger.Error("event publisher close error", "error", err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", "error", err)
		}
	}
	db.Close(a.db)
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Package main is the entrypoint for the talentsync API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/talentsync/talentsync/internal/cache"
	"github.com/talentsync/talentsync/internal/config"
	"github.com/talentsync/talentsync/internal/handler"
	"github.com/talentsync/talentsync/internal/ingest"
	"github.com/talentsync/talentsync/internal/metrics"
	"github.com/talentsync/talentsync/internal/middleware"
	"github.com/talentsync/talentsync/internal/repository"
	"github.com/talentsync/talentsync/internal/server"
	"github.com/talentsync/talentsync/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Surface risky or incomplete configuration at startup. A missing
	// secret is not fatal: each delivery reports it as a 500 instead.
	if cfg.ClerkWebhookSecret == "" {
		logger.Warn("CLERK_WEBHOOK_SECRET is not set; webhook deliveries will be rejected as misconfigured")
	}
	if cfg.WebhookAllowBypass {
		if cfg.IsProduction() {
			logger.Warn("WEBHOOK_ALLOW_BYPASS is set but ignored in production")
		} else {
			logger.Warn("webhook signature bypass sentinel is enabled; do not expose this deployment publicly")
		}
	}

	// Initialize services
	recorder := metrics.NewInMemory()
	userService := service.NewUserService(repo, cacheClient, recorder, logger)
	processor := ingest.NewProcessor(userService, recorder, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	webhookHandler := handler.NewClerkWebhookHandler(processor, repo, recorder, logger, handler.ClerkWebhookConfig{
		Secret:      cfg.ClerkWebhookSecret,
		Tolerance:   cfg.WebhookTolerance,
		AllowBypass: cfg.BypassAllowed(),
		MaxBodySize: cfg.MaxRequestBodySize,
	})
	userHandler := handler.NewUserHandler(userService, logger)
	adminHandler := handler.NewAdminHandler(repo, recorder, logger)

	// Setup router
	r := setupRouter(h, healthHandler, webhookHandler, userHandler, adminHandler, cacheClient, recorder, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	webhookHandler *handler.ClerkWebhookHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Metrics: recorder,
		Enabled: cfg.RateLimitWebhookEnabled,
		RPS:     cfg.RateLimitWebhookRPS,
		Burst:   cfg.RateLimitWebhookBurst,
	}

	// Webhook endpoint. Two historical mounts served by one handler:
	// the platform route and the framework route must behave identically.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitWebhook(rateLimitCfg))

		for _, path := range []string{"/clerk-webhook", "/api/clerk-webhook"} {
			r.Get(path, webhookHandler.Liveness)
			r.Post(path, webhookHandler.Receive)
		}
	})

	// Admin/debug API (require bearer-token authentication)
	authCfg := middleware.AdminAuthConfig{
		Logger:    logger,
		TokenHash: cfg.AdminTokenHash,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(authCfg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/clerk/{clerkID}", userHandler.GetByClerkID)
			r.Post("/sync", userHandler.Resync)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Get("/webhook-events", adminHandler.ListWebhookEvents)
		r.Get("/admin/stats", adminHandler.Stats)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portal is the entry point for the alumni portal web server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Build the backend client, session registry and route guard.
//  6. Wire the portal pages.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/alumniportal/internal/api"
	"github.com/taibuivan/alumniportal/internal/backend"
	"github.com/taibuivan/alumniportal/internal/contact"
	"github.com/taibuivan/alumniportal/internal/guard"
	"github.com/taibuivan/alumniportal/internal/moderation"
	"github.com/taibuivan/alumniportal/internal/platform/config"
	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/metrics"
	"github.com/taibuivan/alumniportal/internal/platform/middleware"
	"github.com/taibuivan/alumniportal/internal/platform/migration"
	pgstore "github.com/taibuivan/alumniportal/internal/platform/postgres"
	redisstore "github.com/taibuivan/alumniportal/internal/platform/redis"
	"github.com/taibuivan/alumniportal/internal/platform/view"
	"github.com/taibuivan/alumniportal/internal/portal"
	"github.com/taibuivan/alumniportal/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("backend", cfg.BackendURL),
	)

	// Lives until shutdown; background sweepers stop with it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	startupCtx, startupCancel := context.WithTimeout(appCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL & Redis ─────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, pgstore.Options{
		DSN:              cfg.DatabaseURL,
		MaxConns:         cfg.DatabaseMaxConns,
		StatementTimeout: cfg.StatementTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, redisstore.Options{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize}, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Backend, Sessions, Guard ───────────────────────────────────────
	var registry *session.Registry
	meter := metrics.New(func() int { return registry.Len() })

	client, err := backend.New(backend.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		Observer: meter,
	})
	must(log, err, "create backend client")
	client.OnUnauthorized(portal.SessionExpired())

	registry = session.NewRegistry(client, session.NewRedisSlots(rdb, cfg.SessionSecret), session.RegistryOptions{
		CredentialTTL: cfg.SessionTTL,
		IdleTTL:       cfg.SessionIdleTTL,
		Observer:      meter,
	})
	go registry.Run(appCtx)

	views, err := view.New()
	must(log, err, "parse templates")

	routeGuard := &guard.Guard{
		MaxWait:  cfg.GuardWait,
		Waiting:  views.Waiting(),
		Observer: meter,
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	contactService := contact.NewService(contact.NewPostgresStore(pool))

	pages := portal.NewHandler(portal.Dependencies{
		Views:       views,
		Client:      client,
		Contact:     contactService,
		Moderation:  moderation.New(meter),
		Guard:       routeGuard,
		FormLimiter: middleware.NewRateLimiter(appCtx, constants.FormRateLimitRPS, constants.FormRateLimitBurst),
	})

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckBackend:  client.Anonymous().Health,
		CheckDatabase: contactService.Ping,
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	})

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Metrics:    meter.Handler(),
		Instrument: meter.Instrument,
		Session: session.Middleware(registry, session.CookieOptions{
			Name:   cfg.SessionCookie,
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionTTL,
		}, cfg.IdentityRefresh),
		Portal: pages.Routes(),
	})

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		appCancel()
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

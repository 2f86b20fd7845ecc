// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Command api is the entry point for the Collabry Groups HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire identity, resource handlers, field validators, and the groups core.
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

	"github.com/collabry/groups/internal/api"
	"github.com/collabry/groups/internal/core/groups"
	"github.com/collabry/groups/internal/core/notify"
	"github.com/collabry/groups/internal/core/resource"
	"github.com/collabry/groups/internal/fieldvalidators"
	"github.com/collabry/groups/internal/identity"
	"github.com/collabry/groups/internal/platform/config"
	"github.com/collabry/groups/internal/platform/constants"
	"github.com/collabry/groups/internal/platform/migration"
	pgstore "github.com/collabry/groups/internal/platform/postgres"
	redisstore "github.com/collabry/groups/internal/platform/redis"
	"github.com/collabry/groups/internal/platform/sec"
	"github.com/collabry/groups/internal/resource/remote"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

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
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Identity ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPubKeyPath, cfg.AuthIssuer)
	must(log, err, "initialize token service")
	users := identity.NewHandler(tokens, rdb, cfg.UserDirURL, log)

	// ── 7. Resource Handlers ──────────────────────────────────────────────
	// Each configured resource service becomes one remote handler keyed
	// by its type.
	handlersByType := make(map[resource.Type]resource.Handler, len(cfg.ResourceServices))
	for rawType, baseURL := range cfg.ResourceServices {
		typ, err := resource.ParseType(rawType)
		must(log, err, "parse resource type "+rawType)
		handlersByType[typ] = remote.NewHandler(typ, baseURL)
		log.Info("resource_service_registered",
			slog.String("resource_type", rawType),
			slog.String("base_url", baseURL),
		)
	}
	registry, err := resource.NewRegistry(handlersByType)
	must(log, err, "build resource registry")

	// ── 8. Field Validators ───────────────────────────────────────────────
	groupFields, userFields, err := fieldvalidators.ParseConfig(cfg.FieldConfig)
	must(log, err, "parse field configuration")

	// ── 9. Notifications ──────────────────────────────────────────────────
	var notifier notify.Notifications
	switch cfg.Notifier {
	case "redis":
		notifier = notify.NewRedisNotifier(rdb, cfg.NotifyChannel, log)
	default:
		notifier = notify.NewSlogNotifier(log)
	}

	// ── 10. Groups Core ───────────────────────────────────────────────────
	storage := groups.NewStorage(pool)
	service := groups.NewService(groups.Deps{
		Storage:     storage,
		Users:       users,
		Resources:   registry,
		GroupFields: groupFields,
		UserFields:  userFields,
		Notifier:    notifier,
		Logger:      log,
	})
	groupsHandler := groups.NewHandler(service)

	// ── 11. Health handlers (wired with real dependency checkers) ─────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 12. HTTP Server ───────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Groups:    groupsHandler,
	}
	server := api.NewServer(serverCtx, cfg, log, handlers)

	// ── 13. Background Expiry Sweeper ─────────────────────────────────────
	if cfg.ExpireRequests {
		go service.RunExpirySweeper(serverCtx, constants.RequestExpirySweepInterval)
		log.Info("request_expiry_sweeper_started",
			slog.Duration("interval", constants.RequestExpirySweepInterval))
	}

	// ── 14. Graceful Shutdown ─────────────────────────────────────────────
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

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

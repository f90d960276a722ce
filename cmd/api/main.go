// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

// Command api is the entry point for the Blognest HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from .env / environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
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

	"github.com/joho/godotenv"

	"github.com/blognest/blognest/internal/accounts"
	"github.com/blognest/blognest/internal/api"
	"github.com/blognest/blognest/internal/blogaccounts"
	"github.com/blognest/blognest/internal/platform/config"
	"github.com/blognest/blognest/internal/platform/constants"
	"github.com/blognest/blognest/internal/platform/fieldcrypt"
	"github.com/blognest/blognest/internal/platform/migration"
	pgstore "github.com/blognest/blognest/internal/platform/postgres"
	redisstore "github.com/blognest/blognest/internal/platform/redis"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platform/upload"
	"github.com/blognest/blognest/internal/platforms"
	"github.com/blognest/blognest/internal/users"
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
	// A local .env file is a development convenience; absence is fine.
	if err := godotenv.Load(); err == nil {
		log.Info("env_file_loaded")
	}

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

	// Application context tied to process lifetime. Background workers
	// (rate-limiter cleanup) stop when it is cancelled.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

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

	// ── 6. Security & Storage Primitives ──────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, cfg.TokenTTL())
	must(log, err, "initialize token service")

	encryptor, err := fieldcrypt.New(cfg.FieldEncryptionKey)
	must(log, err, "initialize field encryptor")

	imageStore, err := upload.NewImageStore(cfg.UploadDir)
	must(log, err, "initialize image store")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := users.NewUserRepository(pool)
	userService := users.NewService(userRepository, tokenService, imageStore, log)
	userHandler := users.NewHandler(userService)

	accountRepository := accounts.NewAccountRepository(pool)
	accountService := accounts.NewService(accountRepository, encryptor, log)
	accountHandler := accounts.NewHandler(accountService)

	platformRepository := platforms.NewPlatformRepository(pool)
	catalogCache := platforms.NewCatalogCache(rdb)
	platformService := platforms.NewService(platformRepository, catalogCache, log)
	platformHandler := platforms.NewHandler(platformService)

	blogAccountRepository := blogaccounts.NewBlogAccountRepository(pool)
	blogAccountService := blogaccounts.NewService(blogAccountRepository, platformRepository, encryptor, log)
	blogAccountHandler := blogaccounts.NewHandler(blogAccountService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Users:        userHandler,
		Accounts:     accountHandler,
		Platforms:    platformHandler,
		BlogAccounts: blogAccountHandler,
	}

	server := api.NewServer(appCtx, cfg, log, tokenService, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
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

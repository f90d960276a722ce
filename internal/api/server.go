// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/blognest/blognest/internal/accounts"
	"github.com/blognest/blognest/internal/blogaccounts"
	"github.com/blognest/blognest/internal/platform/config"
	"github.com/blognest/blognest/internal/platform/constants"
	"github.com/blognest/blognest/internal/platform/middleware"
	"github.com/blognest/blognest/internal/platforms"
	"github.com/blognest/blognest/internal/users"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Users handles signup, login, profiles, and the admin console.
	Users *users.Handler

	// Accounts handles directly-connected blog accounts and revenue metrics.
	Accounts *accounts.Handler

	// Platforms handles the catalog and its admin curation.
	Platforms *platforms.Handler

	// BlogAccounts handles catalog-backed blog account connections.
	BlogAccounts *blogaccounts.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(chimw.RequestSize(constants.JSONBodyLimit))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Static Assets
	// Identity-verification images are written by the upload store and
	// served back read-only from the same directory.
	fileServer := http.StripPrefix(constants.IDImageURLPath+"/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get(constants.IDImageURLPath+"/*", fileServer.ServeHTTP)

	// # Application API
	// Domain-specific route groups mounted under the versioned prefix.
	r.Route(cfg.APIPrefix, func(api chi.Router) {
		api.Mount("/auth", h.Users.AuthRoutes())
		api.Mount("/users", h.Users.UserRoutes())
		api.Mount("/admin", h.Users.AdminRoutes())
		api.Mount("/accounts", h.Accounts.Routes())
		api.Mount("/platforms", h.Platforms.Routes())
		api.Mount("/blog-accounts", h.BlogAccounts.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}

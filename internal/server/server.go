// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which storage backend serves this process
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//   Config (env) → passed to Server
//   Server.New() creates: backend → services → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bugtracker/internal/auth"
	"github.com/sakif/bugtracker/internal/handler"
	"github.com/sakif/bugtracker/internal/middleware"
	"github.com/sakif/bugtracker/internal/repository"
	"github.com/sakif/bugtracker/internal/repository/snapshot"
	sqliteRepo "github.com/sakif/bugtracker/internal/repository/sqlite"
	"github.com/sakif/bugtracker/internal/service"
)

// Backend names accepted in Config.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendSnapshot = "snapshot"
)

// Config holds server configuration, loaded from the environment by
// main.go.
type Config struct {
	Port      int
	Backend   string // "sqlite" or "snapshot"
	DBPath    string // sqlite backend: database file
	DataDir   string // snapshot backend: directory for the JSON files
	JWTSecret string
	// LegacySHA256 switches password hashing to the unsalted SHA-256
	// scheme older databases were written with. Leave it off unless you
	// are pointing at one of those.
	LegacySHA256 bool
}

// Server owns the router and the storage backend. The backend is an
// io.Closer so shutdown can flush it without knowing which one it is
// (the snapshot store's Close is a no-op; SQLite's flushes the WAL).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	closer io.Closer

	authSvc *service.AuthService
}

// New assembles the whole dependency chain:
//  1. Open the configured storage backend
//  2. Build the services on top of the repository interfaces
//  3. Build the handlers on top of the services
//  4. Wire handlers to routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. The handler never touches storage
// directly and the service never touches HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	users, bugs, recorder, closer, err := openBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("configuring token service: %w", err)
	}

	var hasher auth.Hasher = auth.NewBcryptHasher()
	if cfg.LegacySHA256 {
		hasher = auth.SHA256Hasher{}
	}

	activitySvc := service.NewActivityService(recorder, logger)
	authSvc := service.NewAuthService(users, hasher, activitySvc, logger)
	bugSvc := service.NewBugService(bugs, activitySvc, logger)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		closer:  closer,
		authSvc: authSvc,
	}
	s.setupRoutes(tokens, authSvc, bugSvc, activitySvc)
	return s, nil
}

// openBackend constructs the storage the config asks for.
//
// TWO BACKENDS:
// "sqlite" keeps everything — users, bugs, audit trail, comments, time
// logs — in one database file. "snapshot" keeps users and bugs as JSON
// files on disk and the audit trail in memory, matching what that
// storage format has always supported.
func openBackend(cfg Config, logger *slog.Logger) (repository.UserRepository, repository.BugRepository, repository.ActivityRecorder, io.Closer, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		db, err := sqliteRepo.New(cfg.DBPath, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db, db, db, db, nil

	case BackendSnapshot:
		store, err := snapshot.Open(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening snapshot store: %w", err)
		}
		return store, store, snapshot.NewActivityLog(), nopCloser{}, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Bootstrap seeds the default accounts on a fresh store. main.go calls
// it once before Start.
func (s *Server) Bootstrap(ctx context.Context) error {
	return s.authSvc.Bootstrap(ctx)
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
func (s *Server) setupRoutes(tokens *auth.TokenService, authSvc *service.AuthService, bugSvc *service.BugService, activitySvc *service.ActivityService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authHandler := handler.NewAuthHandler(authSvc, tokens, s.logger)
	bugHandler := handler.NewBugHandler(bugSvc, authHandler.Session, s.logger)
	activityHandler := handler.NewActivityHandler(activitySvc)

	// Public: registration and login don't have a session yet.
	s.router.Post("/api/auth/register", authHandler.HandleRegister)
	s.router.Post("/api/auth/login", authHandler.HandleLogin)

	// Everything else requires a valid token.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Post("/api/auth/logout", authHandler.HandleLogout)
		r.Post("/api/auth/change-password", authHandler.HandleChangePassword)
		r.Get("/api/me", authHandler.HandleMe)

		r.Get("/api/users", authHandler.HandleListUsers)
		r.Delete("/api/users/{id}", authHandler.HandleDeleteUser)
		r.Get("/api/users/{id}/activity", activityHandler.HandleForUser)

		r.Get("/api/bugs", bugHandler.HandleList)
		r.Get("/api/bugs/statistics", bugHandler.HandleStatistics)
		r.Post("/api/bugs", bugHandler.HandleCreate)
		r.Get("/api/bugs/{id}", bugHandler.HandleGet)
		r.Patch("/api/bugs/{id}", bugHandler.HandleUpdate)
		r.Delete("/api/bugs/{id}", bugHandler.HandleDelete)
		r.Put("/api/bugs/{id}/status", bugHandler.HandleChangeStatus)
		r.Put("/api/bugs/{id}/priority", bugHandler.HandleChangePriority)
		r.Put("/api/bugs/{id}/assign", bugHandler.HandleAssign)
		r.Put("/api/bugs/{id}/resolve", bugHandler.HandleResolve)
		r.Post("/api/bugs/{id}/comments", bugHandler.HandleAddComment)
		r.Get("/api/bugs/{id}/activity", activityHandler.HandleForBug)

		r.Get("/api/activity", activityHandler.HandleRecent)
	})
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the storage backend (flushes the SQLite WAL, releases the
//    file lock)
func (s *Server) Start() error {
	defer s.closer.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.config.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

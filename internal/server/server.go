// Package server wires the forum together and runs the HTTP server.
//
// COMPOSITION ROOT:
// New builds every long-lived object exactly once:
//
//	config ─► authz defaults ─► store ─► service ─► handler ─► chi router
//	                                        │
//	          observer bus ◄────────────────┘ (events after every commit)
//	             └─► journal (sqlite, optional)
//	jobs runner ─► service.Flush / SweepExpiredGrants
//
// Nothing below this package knows about HTTP servers, signals or files.
//
// SHUTDOWN ORDER:
//  1. Stop accepting connections and drain in-flight requests.
//  2. Stop the background jobs, which flush the last deferred updates.
//  3. Close the journal so the WAL is checkpointed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/forum/internal/auth"
	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/handler"
	"github.com/sakif/forum/internal/jobs"
	"github.com/sakif/forum/internal/middleware"
	"github.com/sakif/forum/internal/observer"
	"github.com/sakif/forum/internal/repository"
	sqliteRepo "github.com/sakif/forum/internal/repository/sqlite"
	"github.com/sakif/forum/internal/reqctx"
	"github.com/sakif/forum/internal/service"
	"github.com/sakif/forum/internal/store"
)

type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	service *service.Service
	jobs    *jobs.Runner
	journal *sqliteRepo.DB // nil when the journal is disabled
}

// New builds the forum described by cfg. version is reported by
// GET /api/version.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	defaults, err := cfg.AuthorizationDefaults()
	if err != nil {
		return nil, fmt.Errorf("authorization defaults: %w", err)
	}

	events := observer.New()
	var journal *sqliteRepo.DB
	if cfg.Journal.Path != "" {
		journal, err = sqliteRepo.New(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		events.Register(repository.NewJournal(journal, logger))
	}

	deps := service.Deps{
		Store:   store.New(defaults),
		Config:  cfg,
		Events:  events,
		Keys:    auth.NewKeyHasher(),
		Logger:  logger,
		Version: version,
	}

	// Without a secret there are no sessions: everybody is anonymous.
	var tokens *auth.TokenService
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime.Duration())
		if err != nil {
			closeJournal(journal, logger)
			return nil, fmt.Errorf("token service: %w", err)
		}
		deps.Tokens = tokens
	} else {
		logger.Warn("auth.jwtSecret not set, login is disabled")
	}

	svc := service.New(deps)
	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		service: svc,
		jobs:    jobs.New(svc, cfg.Jobs.GrantSweepInterval.Duration(), logger),
		journal: journal,
	}
	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes installs the middleware chain documented in the middleware
// package, then the API.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestContext(reqctx.Real()))
	if tokens != nil {
		s.router.Use(auth.OptionalAuth(tokens))
	}

	handler.New(s.service, s.logger, s.cfg.Auth.TokenLifetime.Duration()).Routes(s.router)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer closeJournal(s.journal, s.logger)

	srv := &http.Server{
		Addr:              s.cfg.Service.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.jobs.Start()
	defer s.jobs.Stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("forum listening",
			slog.String("addr", s.cfg.Service.Listen),
			slog.String("journal", s.cfg.Journal.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Service.ShutdownTimeout.Duration())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

func closeJournal(db *sqliteRepo.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("closing journal", slog.String("error", err.Error()))
	}
}

// NewLogger builds the process logger. level is one of debug, info, warn or
// error; format is "json" or anything else for text.
func NewLogger(level, format string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

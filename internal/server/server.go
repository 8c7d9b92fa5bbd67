// Package server implements the sandbox payment gateway. It simulates the
// remote processor far enough to drive the full continuation loop: it issues
// continuation tokens, answers status polls pending then complete, and
// settles payments on resume.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/continuum-pay/continuum/internal/events"
	"github.com/continuum-pay/continuum/pkg/types"
)

// Server is the sandbox gateway HTTP server.
type Server struct {
	store    *store
	recorder *events.Recorder
	router   chi.Router
	addr     string
	logger   *slog.Logger
	srv      *http.Server
}

// New creates a sandbox gateway from the sandbox configuration.
func New(cfg types.SandboxConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:    newStore(cfg.PendingPolls),
		recorder: events.NewRecorder(0),
		addr:     cfg.Addr,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(MaxBodyMiddleware(1 << 20))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	s.router = r
	s.registerRoutes(r)
	return s
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests. It blocks until the listener fails
// or the server is stopped.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("sandbox gateway listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// Package server provides the read-only HTTP API over persisted runs and
// exposes its own request metrics at /metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/gridmerge/internal/ir"
	"github.com/roach88/gridmerge/internal/store"
)

// RunReader is the subset of the run store the API needs.
type RunReader interface {
	ListRuns(ctx context.Context) ([]store.Run, error)
	ReadRun(ctx context.Context, id string) (*store.Run, error)
	ReadDiagnostics(ctx context.Context, id string) ([]ir.Diagnostic, error)
	ReadRows(ctx context.Context, id string) ([]ir.CanonicalRow, error)
}

// Server serves persisted runs over HTTP.
type Server struct {
	runs    RunReader
	logger  *slog.Logger
	metrics *metrics
	router  *chi.Mux
	server  *http.Server
}

// New creates a Server reading from runs.
func New(runs RunReader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runs:    runs,
		logger:  logger,
		metrics: newMetrics(),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(s.metrics.instrument)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/diagnostics", s.handleRunDiagnostics)
		r.Get("/runs/{runID}/table.csv", s.handleRunTable)
	})
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = s.httpServer(addr)
	s.logger.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := s.httpServer(addr)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) httpServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Registry returns the Prometheus registry backing /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.metrics.registry
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the dataset service over a JSON HTTP API.
//
//	GET  /api/publications  search, filter, and paginate
//	GET  /api/insights      insights for the filtered, sampled set
//	GET  /api/stats         dataset statistics
//	GET  /api/filters       distinct filter values
//	POST /api/cache/clear   invalidate the dataset and insight caches
//	GET  /healthz           liveness
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/bioscience-explorer/internal/search"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

const (
	defaultAddr     = ":4000"
	shutdownTimeout = 10 * time.Second
)

// Backend is the dataset surface the API serves. *dataset.Service satisfies it.
type Backend interface {
	Query(ctx context.Context, q search.Query) (types.Page, error)
	QueryInsights(ctx context.Context, q search.Query, typ types.InsightType, sample int) ([]types.Insight, error)
	Stats(ctx context.Context) (search.Summary, error)
	FilterOptions(ctx context.Context) (search.Options, error)
	Invalidate(ctx context.Context) error
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend  Backend
	cfg      types.ServeConfig
	logger   *slog.Logger
	router   *chi.Mux
	pageSize int
}

// New builds the router. A nil logger uses slog.Default().
func New(backend Backend, cfg types.ServeConfig, logger *slog.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = search.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		backend:  backend,
		cfg:      cfg,
		logger:   logger,
		router:   chi.NewRouter(),
		pageSize: cfg.DefaultPageSize,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/publications", s.handlePublications)
		r.Get("/insights", s.handleInsights)
		r.Get("/stats", s.handleStats)
		r.Get("/filters", s.handleFilters)
		r.Post("/cache/clear", s.handleCacheClear)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

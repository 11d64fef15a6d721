// Package server wires the HTTP boundary: routing, middleware, and
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/storeops/logship/internal/errors"
	"github.com/storeops/logship/internal/server/handlers"
	"github.com/storeops/logship/internal/server/middleware"
)

// Server hosts the analyze and export endpoints.
type Server struct {
	host         string
	port         int
	logger       *zap.Logger
	exports      handlers.ExportOptions
	router       chi.Router
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger sets the server logger. Default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithExportOptions sets pipeline tuning for the export handler.
func WithExportOptions(opts handlers.ExportOptions) Option {
	return func(s *Server) { s.exports = opts }
}

// WithTimeouts overrides the HTTP read and write timeouts. Zero values
// keep the defaults.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// New creates a server listening on host:port.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:   host,
		port:   port,
		logger: zap.NewNop(),
		// Exports assemble the whole CSV before responding; the write
		// timeout has to cover the slowest acceptable export.
		readTimeout:  30 * time.Second,
		writeTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter assembles routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))

	r.NotFound(apperrors.NotFoundHandler)
	r.MethodNotAllowed(apperrors.MethodNotAllowedHandler)

	r.Get("/health", handlers.Health)
	r.Get("/version", handlers.VersionHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", handlers.Analyze(s.logger))
		r.Post("/export", handlers.Export(s.logger, s.exports))
	})

	return r
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

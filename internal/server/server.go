// Package server provides the Pathways HTTP server: routing, middleware,
// problem responses, and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/version"
)

// RouteRegistrar is implemented by feature handlers that mount routes on the
// server mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the main Pathways HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	metrics    *Metrics
}

// New creates a Server and mounts core routes plus every registrar's routes.
func New(addr string, logger *zap.Logger, registrars ...RouteRegistrar) *Server {
	mux := http.NewServeMux()
	metrics := NewMetrics()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      metrics.instrument(requestLogger(logger, mux)),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		mux:     mux,
		metrics: metrics,
	}

	s.registerCoreRoutes()
	for _, reg := range registrars {
		reg.RegisterRoutes(mux)
	}

	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// Handler returns the server's full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Pathways-Version", version.Short())
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "pathways",
		"version": version.Map(),
	})
}

// requestLogger logs each request at debug level with method, path, and
// duration.
func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

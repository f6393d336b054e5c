// Package api implements the HTTP API server for wizmerge.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sprite-ai/wizmerge/internal/prresolve"
)

// maxBodySize caps request bodies; merge inputs are whole files.
const maxBodySize = 10 << 20

// Resolver resolves pull requests for /api/pr/resolve.
type Resolver interface {
	Resolve(ctx context.Context, req prresolve.Request) (*prresolve.Report, error)
}

// Server is the wizmerge HTTP API server.
type Server struct {
	addr     string
	router   chi.Router
	server   *http.Server
	metrics  *metrics
	resolver Resolver
}

// Option configures a Server.
type Option func(*Server)

// WithResolver enables pull request resolution.
func WithResolver(r Resolver) Option {
	return func(s *Server) { s.resolver = r }
}

// New creates a new API server.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		router:  chi.NewRouter(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.accessLog)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.RequestSize(maxBodySize))
			r.Post("/merge", s.handleMerge)
			r.Post("/risk", s.handleRisk)
			r.Post("/context", s.handleContext)
			r.Post("/pr/resolve", s.handlePRResolve)
		})
		r.Get("/ws", s.handleWebSocket)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("wizmerge API server listening")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down API server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("json encode error")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

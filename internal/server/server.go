// Package server exposes the optimizer over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/metrics"
	"github.com/yourusername/clever-exotics/internal/service"
)

const (
	serviceName    = "Exotic Bet Optimizer"
	apiVersion     = "1.0.0"
	maxRequestBody = 1 << 20
)

// Options holds the collaborators of the HTTP server
type Options struct {
	Service *service.OptimizationService
	Hub     *Hub
	DB      DatabasePinger
	Logger  *logrus.Logger
	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
	Version     string
	Commit      string
}

// Server serves the REST API, the signal stream and the health probes
type Server struct {
	cfg     config.APIConfig
	svc     *service.OptimizationService
	hub     *Hub
	db      DatabasePinger
	logger  *logrus.Logger
	metrics string
	version string
	commit  string
	now     func() time.Time
	router  chi.Router

	mu         sync.RWMutex
	ready      bool
	httpServer *http.Server
}

// New creates a server and registers its routes
func New(cfg config.APIConfig, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	version := opts.Version
	if version == "" {
		version = apiVersion
	}

	s := &Server{
		cfg:     cfg,
		svc:     opts.Service,
		hub:     opts.Hub,
		db:      opts.DB,
		metrics: opts.MetricsPath,
		logger:  log,
		version: version,
		commit:  opts.Commit,
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/live", s.handleLive)
	r.Get("/ready", s.handleReady)
	if s.metrics != "" {
		r.Method(http.MethodGet, s.metrics, metrics.Handler())
	}

	r.Route("/api/v1/exotic", func(r chi.Router) {
		r.Get("/health", s.handleServiceHealth)
		r.Post("/optimize", s.handleOptimize)
		r.Post("/probabilities/calibrate", s.handleCalibrate)
		r.Post("/combinations/{bet_type}", s.handleCombinations)
		r.Post("/signals", s.handleSignals)
		r.Get("/analytics/performance", s.handlePerformance)
		r.Get("/runs/{id}", s.handleGetRun)
		if s.hub != nil {
			r.Get("/stream", s.hub.HandleWS)
		}
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady marks the server as ready to accept traffic
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout(),
		WriteTimeout: s.cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"service": serviceName,
		}).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: listen: %w", err)
		}
		close(errCh)
	}()

	s.SetReady(true)

	select {
	case err, ok := <-errCh:
		s.SetReady(false)
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.SetReady(false)

	s.mu.RLock()
	srv := s.httpServer
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("API server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

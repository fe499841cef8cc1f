// Package server provides the administrative HTTP server for the
// governance engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"caretrust-hq/minerva/pkg/governance"
	"caretrust-hq/minerva/pkg/telemetry/health"
)

// Config tunes the HTTP server.
type Config struct {
	// ListenAddress is the host:port to bind.
	// Default: "127.0.0.1:8080"
	ListenAddress string

	// ReadTimeout bounds request reads. Default: 10s
	ReadTimeout time.Duration

	// WriteTimeout bounds response writes. Default: 30s
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive idle connections. Default: 60s
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration

	// MetricsPath is where the Prometheus handler is mounted. Empty
	// disables the endpoint.
	MetricsPath string

	// HealthRateLimit caps probe requests per second. Zero disables
	// the cap.
	HealthRateLimit int

	// Version, Commit, and BuildTime populate the /version endpoint.
	Version   string
	Commit    string
	BuildTime string
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = "127.0.0.1:8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server exposes the governance engine's administrative surface over
// HTTP: action submission, the approval queue, escalations, audit
// statistics, configuration, health probes, and metrics.
type Server struct {
	config  Config
	logger  *slog.Logger
	engine  *governance.Engine
	checker *health.Checker

	// metricsHandler serves the Prometheus exposition; nil disables it.
	metricsHandler http.Handler

	httpServer   *http.Server
	shutdownOnce sync.Once

	mu        sync.RWMutex
	isRunning bool
}

// New creates an administrative server for the given engine.
func New(cfg Config, engine *governance.Engine, checker *health.Checker, metricsHandler http.Handler, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("governance engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	if checker == nil {
		checker = health.New(0)
	}

	return &Server{
		config:         cfg,
		logger:         logger.With("component", "server"),
		engine:         engine,
		checker:        checker,
		metricsHandler: metricsHandler,
	}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Admin server starting", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("Shutdown error", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("Admin server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler builds the full route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.RateLimitedHandler(s.checker.LivenessHandler(), s.config.HealthRateLimit))
	mux.HandleFunc("GET /ready", health.RateLimitedHandler(s.checker.ReadinessHandler(), s.config.HealthRateLimit))
	mux.HandleFunc("GET /version", health.VersionHandler(s.config.Version, s.config.Commit, s.config.BuildTime))
	if s.metricsHandler != nil && s.config.MetricsPath != "" {
		mux.Handle("GET "+s.config.MetricsPath, s.metricsHandler)
	}

	mux.HandleFunc("POST /api/v1/actions", s.handleProcessAction)
	mux.HandleFunc("GET /api/v1/approvals", s.handleListApprovals)
	mux.HandleFunc("POST /api/v1/approvals/{id}/decision", s.handleApprovalDecision)
	mux.HandleFunc("GET /api/v1/escalations", s.handleListEscalations)
	mux.HandleFunc("POST /api/v1/escalations/{id}/resolve", s.handleResolveEscalation)
	mux.HandleFunc("GET /api/v1/audit/statistics", s.handleAuditStatistics)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/v1/config", s.handleUpdateConfig)

	return s.recoverMiddleware(mux)
}

// recoverMiddleware converts handler panics into 500 responses.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Handler panicked",
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

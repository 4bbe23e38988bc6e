package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker covers collaborators that expose HealthCheck instead of Ping
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	projectService driving.ProjectService
	docService     driving.DocumentService
	qaService      driving.QAService
	exportService  driving.ExportService

	// Infrastructure health probes
	db    Pinger        // PostgreSQL
	index HealthChecker // similarity index (optional)
	queue Pinger        // task queue (optional)
}

// Config holds server configuration
type Config struct {
	Host string
	Port int

	// RateLimitPerMinute throttles each client IP; <= 0 disables.
	RateLimitPerMinute int

	Version string
	Logger  *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		RateLimitPerMinute: 30,
		Version:            "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	projectService driving.ProjectService,
	docService driving.DocumentService,
	qaService driving.QAService,
	exportService driving.ExportService,
	db Pinger,
	index HealthChecker, // can be nil
	queue Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		projectService: projectService,
		docService:     docService,
		qaService:      qaService,
		exportService:  exportService,
		db:             db,
		index:          index,
		queue:          queue,
	}

	s.setupRoutes()

	// recovery → rate limit → metrics → logging → mux
	var handler http.Handler = s.router
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewMetricsMiddleware().Handler(handler)
	handler = NewRateLimitMiddleware(cfg.RateLimitPerMinute).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // answer synthesis can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Project endpoints
	s.router.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	s.router.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	s.router.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	s.router.HandleFunc("DELETE /api/v1/projects/{id}", s.handleDeleteProject)
	s.router.HandleFunc("GET /api/v1/projects/{id}/export", s.handleExportProject)

	// Document endpoints
	s.router.HandleFunc("POST /api/v1/documents", s.handleCreateDocument)
	s.router.HandleFunc("GET /api/v1/documents", s.handleListDocuments)
	s.router.HandleFunc("GET /api/v1/documents/{id}", s.handleGetDocument)
	s.router.HandleFunc("GET /api/v1/documents/{id}/chunks", s.handleGetDocumentChunks)
	s.router.HandleFunc("DELETE /api/v1/documents/{id}", s.handleDeleteDocument)
	s.router.HandleFunc("POST /api/v1/documents/{id}/reindex", s.handleReindexDocument)

	// Question-answering endpoints
	s.router.HandleFunc("POST /api/v1/qa/ask", s.handleAsk)
	s.router.HandleFunc("GET /api/v1/qa/sessions", s.handleListSessions)
	s.router.HandleFunc("GET /api/v1/qa/sessions/{id}", s.handleGetSession)

	// Stats endpoint
	s.router.HandleFunc("GET /api/v1/stats", s.handleStats)
}

// Handler returns the configured handler chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or listen failure
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	s.logger.Info("shutting down server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

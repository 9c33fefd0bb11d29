// Package server exposes projectflow over HTTP.
//
// It serves:
//   - the authenticated project and task API under /api
//   - Kubernetes-style health probes (liveness, readiness, startup)
//   - Prometheus metrics and the OpenAPI document of the API
//
// Shutdown is graceful: readiness starts failing, keep-alives are disabled
// and in-flight requests drain up to ShutdownTimeout.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/projectflow/internal/auth"
	"github.com/felixgeelhaar/projectflow/internal/health"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/metrics"
	"github.com/felixgeelhaar/projectflow/internal/project"
)

// Server provides the HTTP API and health endpoints.
type Server struct {
	httpServer      *http.Server
	probeManager    *health.ProbeManager
	inShutdown      atomic.Bool
	shutdownTimeout time.Duration

	auth     *auth.Service
	projects *project.Service
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// Config holds server configuration.
type Config struct {
	// Address is the listen address (e.g., ":8080", "0.0.0.0:8080")
	Address string

	// ShutdownTimeout is the maximum time to wait for connections to drain during shutdown.
	// Defaults to 30 seconds if not specified.
	ShutdownTimeout time.Duration

	// ReadTimeout defaults to 10 seconds.
	ReadTimeout time.Duration

	// WriteTimeout defaults to 10 seconds.
	WriteTimeout time.Duration

	// IdleTimeout defaults to 60 seconds.
	IdleTimeout time.Duration

	// CORSOrigins lists the origins allowed to call the API from a browser.
	// "*" allows any origin.
	CORSOrigins []string

	// ValidateRequests checks /api requests against the embedded OpenAPI
	// document before they reach a handler.
	ValidateRequests bool
}

// Deps are the services the server routes to.
type Deps struct {
	Auth     *auth.Service
	Projects *project.Service
	Probes   *health.ProbeManager

	// Metrics and Registry are optional. Without a Registry /metrics is not
	// served.
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	// Logger defaults to the process logger.
	Logger *log.Logger
}

// New builds a server with all routes and middleware registered.
func New(cfg Config, deps Deps) (*Server, error) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if deps.Auth == nil || deps.Projects == nil || deps.Probes == nil {
		return nil, fmt.Errorf("server: auth, projects and probes are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.DefaultLogger()
	}

	s := &Server{
		probeManager:    deps.Probes,
		shutdownTimeout: cfg.ShutdownTimeout,
		auth:            deps.Auth,
		projects:        deps.Projects,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
	}

	mux := http.NewServeMux()
	s.routes(mux, deps.Registry)

	handler := http.Handler(mux)
	if cfg.ValidateRequests {
		v, err := newValidator()
		if err != nil {
			return nil, err
		}
		handler = v.middleware(handler)
	}
	handler = cors(cfg.CORSOrigins)(handler)
	handler = s.accessLog(handler)
	handler = requestID(handler)
	handler = s.recoverer(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return log.IntoContext(context.Background(), deps.Logger)
		},
	}

	return s, nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server is stopped or encounters an error.
// Returns http.ErrServerClosed when the server is shut down gracefully.
func (s *Server) Start() error {
	s.probeManager.MarkInitialized()
	s.logger.Info("server listening", "address", s.httpServer.Addr)

	return s.httpServer.ListenAndServe()
}

// Shutdown performs graceful shutdown of the HTTP server.
//
// It:
//  1. Marks the server as shutting down (readiness probes will fail)
//  2. Disables HTTP keep-alives to stop accepting new requests
//  3. Waits for existing connections to drain (up to ShutdownTimeout)
//  4. Forces closure of any remaining connections after timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()

	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

// writeProbeResponse writes a probe result, using unhealthyStatus when the
// probe failed.
func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	w.Header().Set("Content-Type", "application/json")

	if result.Status == health.StatusUnhealthy {
		w.WriteHeader(unhealthyStatus)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("encode probe response", "error", err)
	}
}

// handleLiveness handles GET /health/live.
//
// Liveness always answers 200; a draining process reports degraded.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckLiveness(r.Context())
	s.writeProbeResponse(w, result, http.StatusOK)
}

// handleReadiness handles GET /health/ready and GET /healthz.
//
// Returns:
//   - 200 OK with JSON: ready to serve requests
//   - 503 Service Unavailable with JSON: shutting down or the store is unreachable
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckReadiness(r.Context())
	s.writeProbeResponse(w, result, http.StatusServiceUnavailable)
}

// handleStartup handles GET /health/startup. It answers 503 until Start has
// been called.
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckStartup(r.Context())
	s.writeProbeResponse(w, result, http.StatusServiceUnavailable)
}

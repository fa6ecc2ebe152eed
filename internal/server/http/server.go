// Package httpserver provides the HTTP REST API server for the roster control service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/guardia/roster-control-service/internal/domain"
	"github.com/guardia/roster-control-service/internal/observability"
	"github.com/guardia/roster-control-service/internal/repository"
	"github.com/guardia/roster-control-service/internal/workbook"
)

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	sessions    repository.SessionRepository
	mutator     *workbook.Mutator
	metrics     *observability.Metrics
	validate    *validator.Validate
	limiter     *rate.Limiter
	logger      zerolog.Logger
	maxUpload   int64
	defaultOpts domain.MatchingOptions
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	// DefaultOptions are the matching thresholds applied to new sessions
	// that do not override them.
	DefaultOptions domain.MatchingOptions

	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	sessions repository.SessionRepository,
	mutator *workbook.Mutator,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		sessions:    sessions,
		mutator:     mutator,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger.With().Str("component", "http-server").Logger(),
		maxUpload:   cfg.MaxUploadBytes,
		defaultOpts: cfg.DefaultOptions,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 8 << 20
	}
	if s.defaultOpts == (domain.MatchingOptions{}) {
		s.defaultOpts = domain.DefaultMatchingOptions()
	}
	if cfg.RateLimitEnabled {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(jsonContentTypeMiddleware)
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware)
	}

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Use(sessionContextMiddleware)

			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/thresholds", s.updateThresholds)
			r.Post("/decisions", s.recordDecision)
			r.Delete("/decisions", s.undoDecision)
			r.Put("/checks/{recordID}", s.setCheck)
			r.Post("/workbook", s.uploadWorkbook)
			r.Get("/workbook/cleaned", s.downloadCleanedWorkbook)
			r.Get("/workbook/updated", s.downloadUpdatedWorkbook)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler returns readiness status. Sessions live in process memory,
// so readiness follows liveness once the repository answers.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"sessions": s.sessions.Count(r.Context()),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

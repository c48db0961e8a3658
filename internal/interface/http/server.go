// Package http implements the host-facing REST endpoints of the adaptive
// learning hub: revisions for a learner, tracking events, health and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/adaptive-learning/internal/application/command"
	"github.com/alem-hub/adaptive-learning/internal/application/query"
	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/domain/shared"
	"github.com/alem-hub/adaptive-learning/internal/interface/http/handlers"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr - address to listen on (default: ":8080").
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// APIKeyHeader and APIKeys guard the POST endpoints.
	APIKeyHeader string
	APIKeys      []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxBodyBytes: 1 << 20, // 1 MB
		APIKeyHeader: "X-API-Key",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// RevisionsQuerier lists pending revisions.
type RevisionsQuerier interface {
	Handle(ctx context.Context, q query.GetPendingRevisionsQuery) ([]adaptive.Revision, error)
}

// ResultRecorder handles tracking events.
type ResultRecorder interface {
	Handle(ctx context.Context, ev command.TrackingEvent) (*command.RecordResultResult, error)
}

// ReadRecorder records read events.
type ReadRecorder interface {
	Handle(ctx context.Context, cmd command.RecordReadCommand) (*adaptive.Event, error)
}

// ReviewQuestionLinker links learners to review questions.
type ReviewQuestionLinker interface {
	Handle(ctx context.Context, cmd command.LinkReviewQuestionsCommand) ([]adaptive.KnowledgeNodeStudent, error)
}

// Observer receives request metrics. *metrics.Metrics implements it.
type Observer interface {
	ObserveHTTPRequest(route string, status int, d time.Duration)
	ObserveRevisions(n int)
	ObserveTrackingEvent(forwarded bool)
	Handler() http.Handler
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Query Handlers
	Revisions RevisionsQuerier

	// Command Handlers
	RecordResult        ResultRecorder
	RecordRead          ReadRecorder
	LinkReviewQuestions ReviewQuestionLinker

	Logger        *logger.Logger
	HealthChecker handlers.HealthChecker
	Metrics       Observer
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	d := DefaultConfig()
	if config.Addr == "" {
		config.Addr = d.Addr
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = d.MaxBodyBytes
	}
	if config.APIKeyHeader == "" {
		config.APIKeyHeader = d.APIKeyHeader
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return handlers.Chain(
		s.recoveryMiddleware,
		s.requestIDMiddleware,
		s.loggingMiddleware,
	)(s.router)
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.handle("GET /health", http.HandlerFunc(s.handleHealth))
	s.handle("GET /ready", http.HandlerFunc(s.handleReady))
	s.handle("GET /live", http.HandlerFunc(s.handleLive))
	if s.deps.Metrics != nil {
		s.router.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Learner Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.handle("GET /api/revisions/", http.HandlerFunc(s.handleGetRevisions))

	// ─────────────────────────────────────────────────────────────────────────
	// Host Platform Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	protect := handlers.Chain(
		handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes),
		handlers.NewAPIKeyAuth(s.config.APIKeyHeader, s.config.APIKeys).Middleware,
	)
	s.handle("POST /api/track", protect(http.HandlerFunc(s.handleTrack)))
	s.handle("POST /api/read-events", protect(http.HandlerFunc(s.handleReadEvent)))
	s.handle("POST /api/review-questions", protect(http.HandlerFunc(s.handleLinkReviewQuestions)))
}

// handle registers a route and records its metrics under the pattern.
func (s *Server) handle(pattern string, h http.Handler) {
	if s.deps.Metrics == nil {
		s.router.Handle(pattern, h)
		return
	}
	s.router.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)
		h.ServeHTTP(rw, r)
		s.deps.Metrics.ObserveHTTPRequest(pattern, rw.statusCode, time.Since(start))
	}))
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// requestIDMiddleware adds a unique request ID and a request scoped logger.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		next.ServeHTTP(rw, r)

		logger.FromContext(r.Context()).Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.String("ip", clientIP(r)),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response in the standard envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	writeRaw(w, status, JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// writeRaw writes v as the whole response body.
func writeRaw(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeRaw(w, status, JSONResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// writeDomainError maps an application error to a status code.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case shared.IsValidation(err):
		status, code = http.StatusBadRequest, "invalid_request"
	case shared.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case shared.IsRemoteService(err):
		status, code = http.StatusBadGateway, "remote_service_error"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	}

	log := logger.FromContext(r.Context())
	if status >= 500 {
		log.Error("request failed", logger.String("path", r.URL.Path), logger.Err(err))
	} else {
		log.Info("request rejected", logger.String("path", r.URL.Path), logger.Err(err))
	}

	// internal details stay in the log
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "An unexpected error occurred"
	}
	writeRaw(w, status, JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: msg},
		RequestID: requestID(r.Context()),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestID extracts the request ID from context.
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Package server implements the CODATS HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/api"
	"github.com/pradeepp3/CODATS/pkg/explain"
	"github.com/pradeepp3/CODATS/pkg/redact"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/storage"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// MaxUploadBytes limits uploaded files.
	MaxUploadBytes int64
	// MaxBodyBytes limits JSON request bodies.
	MaxBodyBytes int64
	// MaxCodeLength limits scanned code, in characters.
	MaxCodeLength int
	// DefaultLanguage is used when a scan request names no language.
	DefaultLanguage string
	// RedactSnippets masks secrets in returned finding snippets.
	RedactSnippets bool
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5000,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  5 << 20,
		MaxBodyBytes:    10 << 20,
		MaxCodeLength:   scanner.DefaultMaxCodeLength,
		DefaultLanguage: "javascript",
	}
}

// Server represents the CODATS HTTP server.
type Server struct {
	config     Config
	httpServer *http.Server
	engine     *scanner.Engine
	explainer  explain.Explainer
	redactor   *redact.Redactor
	store      storage.Store
	logger     *zap.SugaredLogger
	startTime  time.Time
	listener   net.Listener

	mu      sync.RWMutex
	running bool
}

// New creates a new server. store may be nil to disable history.
func New(config Config, engine *scanner.Engine, store storage.Store, logger *zap.SugaredLogger) *Server {
	if engine == nil {
		engine = scanner.NewDefault()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		config:    config,
		engine:    engine,
		explainer: explain.MustStatic(),
		redactor:  redact.New(),
		store:     store,
		logger:    logger,
		startTime: time.Now(),
	}
}

// SetExplainer replaces the explainer used for scan responses.
func (s *Server) SetExplainer(e explain.Explainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.explainer = e
}

func (s *Server) getExplainer() explain.Explainer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.explainer
}

// Handler returns the server's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.loggingMiddleware(corsMiddleware(s.recoverMiddleware(mux)))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Infow("Server listening", "addr", "http://"+listener.Addr().String())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("Server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Infow("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the actual address the server is listening on.
// This is useful when the server was started with port 0 (random port).
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// registerRoutes registers all API routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Scanning
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/scan/upload", s.handleUpload)
	mux.HandleFunc("POST /api/fix", s.handleFix)

	// Catalog
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("GET /api/rules", s.handleRules)

	// History
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	mux.HandleFunc("/", s.handleNotFound)
}

// loggingMiddleware logs all requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.Infow("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	})
}

// recoverMiddleware turns handler panics into 500 responses.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Errorw("Handler panic", "path", r.URL.Path, "panic", rec)
				api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

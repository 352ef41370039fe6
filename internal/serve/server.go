package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/marcus/svp/internal/db"
)

// ServeConfig holds the configuration for the HTTP server.
type ServeConfig struct {
	Port         int
	Addr         string
	Token        string
	CORSOrigin   string
	PingInterval time.Duration
}

// Server is the svp serve HTTP server.
type Server struct {
	db        *db.DB
	sessionID string
	baseDir   string
	config    ServeConfig
	mux       *http.ServeMux
	hub       *EventHub
	validate  *validator.Validate
	changes   atomic.Uint64
	http      *http.Server
}

// NewServer creates a new Server, registers all routes, and sets up the
// middleware chain.
func NewServer(database *db.DB, baseDir, sessionID string, config ServeConfig) *Server {
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}
	s := &Server{
		db:        database,
		sessionID: sessionID,
		baseDir:   baseDir,
		config:    config,
		mux:       http.NewServeMux(),
		validate:  newValidator(),
	}
	s.hub = NewEventHub(config.PingInterval, s.ChangeToken)

	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)

	// Final order (outermost to innermost):
	//   recovery -> logging -> CORS -> auth -> handler
	h = s.authMiddleware(h)
	h = s.corsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)

	return h
}

// ListenAndServe starts the HTTP server on the configured address and port,
// and handles graceful shutdown when the context is cancelled. The bound
// port is reported through onListen before serving begins.
func (s *Server) ListenAndServe(ctx context.Context, onListen func(port int) error) error {
	addr := fmt.Sprintf("%s:%d", s.config.Addr, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if onListen != nil {
		if err := onListen(ln.Addr().(*net.TCPAddr).Port); err != nil {
			ln.Close()
			return err
		}
	}

	s.hub.Start(ctx)
	defer s.hub.Stop()

	s.http = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// no write timeout: event streams stay open
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server. If the server has not been started,
// this is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// ChangeToken identifies the current data revision served by this process.
func (s *Server) ChangeToken() string {
	return fmt.Sprintf("%s-%d", s.sessionID, s.changes.Load())
}

// NotifyChange bumps the change token and tells event stream clients.
func (s *Server) NotifyChange() {
	s.changes.Add(1)
	s.hub.Broadcast(s.ChangeToken())
}

// ============================================================================
// Route Registration
// ============================================================================

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Plans
	s.mux.HandleFunc("GET /api/svp/plans", s.handleListPlans)
	s.mux.HandleFunc("GET /api/svp/plans/grid", s.handlePlanGrid)
	s.mux.HandleFunc("POST /api/svp/plans", s.handleCreatePlan)
	s.mux.HandleFunc("GET /api/svp/plans/{id}", s.handleGetPlan)
	s.mux.HandleFunc("PATCH /api/svp/plans/{id}", s.handleUpdatePlanStatus)
	s.mux.HandleFunc("DELETE /api/svp/plans/{id}", s.handleCancelPlan)
	s.mux.HandleFunc("POST /api/svp/plans/{id}/access", s.handleRecordAccess)
	s.mux.HandleFunc("PATCH /api/svp/plans/{id}/coversheet", s.handleUpdateCoversheet)
	s.mux.HandleFunc("PATCH /api/svp/plans/{id}/sections/{section_id}", s.handleUpdateSection)

	// Page configuration
	s.mux.HandleFunc("GET /api/svp/config", s.handleGridConfig)
	s.mux.HandleFunc("GET /api/svp/initiate/options", s.handleInitiateOptions)

	// Saved searches
	s.mux.HandleFunc("GET /api/svp/searches", s.handleListSearches)
	s.mux.HandleFunc("POST /api/svp/searches", s.handleSaveSearch)
	s.mux.HandleFunc("DELETE /api/svp/searches/{id}", s.handleDeleteSearch)

	// Layout
	s.mux.HandleFunc("GET /api/menu", s.handleMenu)
	s.mux.HandleFunc("GET /api/layout/header-nav", s.handleHeaderNav)

	// Change events
	s.mux.HandleFunc("GET /api/svp/events", s.handleEvents)
}

// ============================================================================
// Middleware
// ============================================================================

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush lets event streams flush through the recorder.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// recoveryMiddleware catches panics, logs the stack trace, and returns a 500
// error envelope.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				WriteError(w, ErrInternal, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with method, path, status code, and
// duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sr, r)
		slog.Info("req",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.code,
			"dur", time.Since(start).String(),
		)
	})
}

// corsMiddleware handles CORS preflight and sets response headers when
// CORSOrigin is configured.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.config.CORSOrigin == "" || origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if s.config.CORSOrigin != "*" && s.config.CORSOrigin != origin {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the Bearer token when the server is configured with
// a token. GET /health is always exempt.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet && r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteError(w, ErrUnauthorized, "missing authorization header", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			WriteError(w, ErrUnauthorized, "invalid authorization format", http.StatusUnauthorized)
			return
		}
		if token != s.config.Token {
			WriteError(w, ErrUnauthorized, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

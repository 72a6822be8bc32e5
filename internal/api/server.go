// Package api is the HTTP surface of the coordinator: a headless document
// registry, evaluation submission, queue and journal inspection, and an SSE
// event stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/blockeval/internal/auth"
	"github.com/mattjoyce/blockeval/internal/document"
	"github.com/mattjoyce/blockeval/internal/eval"
	"github.com/mattjoyce/blockeval/internal/events"
	"github.com/mattjoyce/blockeval/internal/journal"
	"github.com/mattjoyce/blockeval/internal/queue"
)

// Coordinator is the slice of the evaluation manager the API consumes.
type Coordinator interface {
	Submit(ctx context.Context, spec eval.SubmitSpec) (eval.Submission, error)
	Wait(ctx context.Context, id string, timeout time.Duration) error
	Pending(id string) bool
	Depths() map[string]int
	Snapshot() map[string][]queue.PendingInfo
}

// JournalReader is the slice of the journal store the API consumes. Nil means
// no journal is configured.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Record, error)
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// APIKey is the legacy single bearer token (admin/full access).
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
	// MaxWaitTimeout caps the ?wait=true synchronous path.
	MaxWaitTimeout time.Duration
}

// Server represents the HTTP API server.
type Server struct {
	config    Config
	coord     Coordinator
	store     JournalReader
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	mu   sync.Mutex
	docs map[string]*document.Buffer
}

// New creates a new API server instance.
func New(config Config, coord Coordinator, store JournalReader, hub *events.Hub, logger *slog.Logger) *Server {
	if config.MaxWaitTimeout <= 0 {
		config.MaxWaitTimeout = time.Minute
	}
	return &Server{
		config:    config,
		coord:     coord,
		store:     store,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
		docs:      make(map[string]*document.Buffer),
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // SSE and synchronous waits hold connections open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireScopes("docs:rw", "*")).Put("/docs/{key}", s.handlePutDoc)
		r.With(s.requireScopes("docs:ro", "docs:rw", "*")).Get("/docs/{key}", s.handleGetDoc)
		r.With(s.requireScopes("eval:rw", "*")).Post("/eval", s.handleEval)
		r.With(s.requireScopes("eval:ro", "eval:rw", "*")).Get("/queues", s.handleQueues)
		r.With(s.requireScopes("eval:ro", "eval:rw", "*")).Get("/journal", s.handleJournal)
		r.With(s.requireScopes("events:ro", "events:rw", "*")).Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware validates the bearer token and attaches the principal.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		principal, ok := auth.Authenticate(token, s.config.APIKey, s.config.Tokens)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// requireScopes passes requests whose principal holds any of the scopes.
func (s *Server) requireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok || !auth.HasAnyScope(principal, scopes...) {
				s.writeError(w, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

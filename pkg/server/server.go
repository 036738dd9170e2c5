// Package server exposes pipeline sessions and the provider proxy routes
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/zen-systems/alphacouncil/pkg/config"
	"github.com/zen-systems/alphacouncil/pkg/market"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// SessionHeader carries the browser session id on requests and responses.
const SessionHeader = "X-Session-ID"

// QuoteSource fetches a normalized quote or reports why it could not.
type QuoteSource interface {
	Quote(ctx context.Context, symbol, apiKey string) (*market.Quote, error)
}

// Config holds the server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
	MaxSessions     int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:            3001,
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 10 * time.Second,
		SessionTTL:      2 * time.Hour,
		MaxSessions:     DefaultMaxSessions,
	}
}

// Deps are the collaborators the handlers use.
type Deps struct {
	// NewController builds the controller of a new session.
	NewController func() *pipeline.Controller
	Executor      *pipeline.Executor
	Quotes        QuoteSource
	Catalog       *config.ModelCatalog
	Gatherer      prometheus.Gatherer
}

// Server is the HTTP API.
type Server struct {
	router   chi.Router
	config   Config
	deps     Deps
	sessions *Sessions
	logger   *slog.Logger
	now      func() time.Time

	runCtx context.Context
	runs   sync.WaitGroup
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithClock replaces time.Now for report timestamps and session expiry.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Server.
func New(cfg Config, deps Deps, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = config.DefaultModelCatalog()
	}
	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
		runCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = NewSessions(deps.NewController, cfg.SessionTTL, cfg.MaxSessions, s.now)
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader, "X-Request-ID"},
		ExposedHeaders: []string{SessionHeader, "X-Request-ID"},
		MaxAge:         300,
	})
	r.Use(corsMiddleware.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/stages", s.handleStages)
			r.Put("/stages/{id}", s.handleConfigureStage)
			r.Post("/runs", s.handleStartRun)
			r.Get("/state", s.handleState)
			r.Post("/reset", s.handleReset)
			r.Get("/report", s.handleReport)
		})

		r.Post("/ai/{provider}", s.handleAIProxy)
		r.Post("/stock/{symbol}", s.handleStockProxy)
	})

	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session store.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and waits for in-flight runs up to the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.runCtx = ctx
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.logger.Warn("runs still in flight at shutdown")
	}
	s.logger.Info("http server stopped")
	return nil
}

// SweepSessions expires idle sessions until ctx is cancelled.
func (s *Server) SweepSessions(ctx context.Context) error {
	if s.config.SessionTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.config.SessionTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.logger.Debug("expired sessions", slog.Int("count", n))
			}
		}
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

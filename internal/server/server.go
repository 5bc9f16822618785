// Package server provides the HTTP server for formcheck.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/formcheck/internal/countstore"
	"github.com/ayusman/formcheck/internal/exercise"
	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether a backing store is reachable. *store.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server configuration. Only Controller is required.
type Config struct {
	StaticDir      string
	AllowedOrigins []string

	Controller api.SessionController
	Catalog    *exercise.Catalog
	Counts     countstore.Store // served at /get_task_counts when set
	History    api.SessionLister
	Health     Pinger
	Frames     FrameSource
	Events     *EventHub
	OnStarted  func(session.Status)
	Logger     *slog.Logger
}

// Server represents the HTTP server for the formcheck application.
type Server struct {
	config Config
	router chi.Router
	log    *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chiMiddleware.Recoverer)
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors(s.config.AllowedOrigins))
	}

	r.Get("/api/health", s.handleHealth)

	counting := api.NewCountingHandler(s.config.Controller, s.log)
	if s.config.OnStarted != nil {
		counting.OnStarted(s.config.OnStarted)
	}
	counting.RegisterRoutes(r)

	if s.config.Counts != nil {
		api.NewTaskCountHandler(s.config.Counts, s.log).RegisterRoutes(r)
	}
	if s.config.Catalog != nil {
		api.NewExerciseHandler(s.config.Catalog).RegisterRoutes(r)
	}
	if s.config.History != nil {
		api.NewSessionHistoryHandler(s.config.History).RegisterRoutes(r)
	}

	if s.config.Frames != nil {
		stream := NewStreamHandler(s.config.Frames)
		r.Get("/api/stream", stream.ServeHTTP)
		r.Get("/api/snapshot", stream.Snapshot)
	}

	if s.config.Events != nil {
		r.Get("/api/events", s.config.Events.ServeHTTP)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	status := http.StatusOK

	if s.config.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.config.Health.Ping(ctx); err != nil {
			s.log.Warn("health check failed", "error", err)
			response["status"] = "degraded"
			response["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			response["database"] = "ok"
		}
	}

	writeJSON(w, status, response)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	if s.config.Events != nil {
		s.config.Events.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

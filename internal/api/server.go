// Package api exposes reader sessions over HTTP. Each session is an
// independent reader instance; all sessions share one engine bootstrap.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/pdf-reader/internal/config"
	"github.com/spherical/pdf-reader/internal/observability"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, store *SessionStore, maxSizeMB float64) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger.WithComponent("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS([]string{"*"}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"pdf-reader"}`))
	})

	h := NewHandler(store, maxSizeMB, logger)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Put("/file", h.UploadFile)
			r.Get("/file", h.GetFile)
			r.Post("/modes/{mode}", h.RunMode)
			r.Get("/canvases/{page}", h.GetCanvas)
		})
	})

	return r
}

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	srv    *http.Server
	cfg    config.ServerConfig
	logger *observability.Logger
}

// NewServer creates a server for handler using cfg's timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *observability.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		cfg:    cfg,
		logger: logger.WithComponent("server"),
	}
}

// Run serves until ctx is done, then shuts down within the grace period.
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
		serverErrors <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdown)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := s.srv.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Forced shutdown failed")
		}
		return err
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// Package server provides the HTTP API for glacierwatch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/catalog"
	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/session"
)

// requestTimeout covers a full velocity request including the platform round trips.
const requestTimeout = 10 * time.Minute

// Server is the HTTP server for the glacierwatch API.
type Server struct {
	sessions *session.Manager
	catalog  *catalog.Catalog
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	sessions *session.Manager,
	cat *catalog.Catalog,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		sessions: sessions,
		catalog:  cat,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/glaciers", s.handleListGlaciers)
		r.Get("/climate/variables", s.handleListVariables)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/velocity", s.handleVelocity)
			r.Post("/climate", s.handleClimate)
			r.Post("/ask", s.handleAsk)
			r.Get("/turns", s.handleTurns)
			r.Get("/suggestions", s.handleSuggestions)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Package server provides the HTTP API for Extractify.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/extractify/internal/config"
	"github.com/hyperjump/extractify/internal/extract"
	"github.com/hyperjump/extractify/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Extractify API.
type Server struct {
	extractor *extract.Extractor
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. A nil logger disables logging.
func NewServer(extractor *extract.Extractor, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	return &Server{
		extractor: extractor,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/extract", s.handleExtract)
	r.Post("/api/v1/export", s.handleExport)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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

func (s *Server) maxUploadBytes() int64 {
	if s.config == nil || s.config.MaxUploadBytes <= 0 {
		return config.DefaultMaxUploadBytes
	}
	return s.config.MaxUploadBytes
}

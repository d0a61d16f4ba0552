// Package server exposes the acquisition pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/cinemap/internal/aggregate"
	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/health"
)

// Explorer is the pipeline the API serves.
type Explorer interface {
	SearchMovie(ctx context.Context, title string) (*domain.MovieRecord, error)
	ResolveLocations(ctx context.Context, names []string) ([]*domain.LocationRecord, error)
	Explore(ctx context.Context, title string) (*aggregate.Exploration, error)
}

// HealthChecker reports system health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) *health.HealthReport
}

// Server provides the JSON API plus health and metrics endpoints.
type Server struct {
	router *gin.Engine
	server *http.Server
	log    *slog.Logger
}

// NewServer creates a new server listening on port.
func NewServer(explorer Explorer, monitor HealthChecker, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	s := &Server{
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: slog.Default().With("component", "server"),
	}

	NewHealthHandler(monitor).RegisterRoutes(router.Group("/health"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	NewHandler(explorer).RegisterRoutes(router.Group("/api"))

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

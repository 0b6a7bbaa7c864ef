// Package http serves the knowledge base query and ingestion API over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Ports holds the driving ports served by the API.
type Ports struct {
	Answer    driving.AnswerService
	Ingestion driving.IngestionService
	Source    driving.SourceService
	Document  driving.DocumentService
}

// Server is the echo-based HTTP API.
type Server struct {
	echo    *echo.Echo
	ports   *Ports
	metrics http.Handler

	// base parents background ingestion runs started by requests.
	base context.Context
	wg   sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server for the given ports.
// Answer is required; the other ports disable their routes when nil.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if ports == nil || ports.Answer == nil {
		return nil, errors.New("http: answer service is required")
	}

	s := &Server{
		echo:  echo.New(),
		ports: ports,
		base:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = errorHandler
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := e.Group("/api/v1")
	api.POST("/query", s.query)

	if s.ports.Ingestion != nil {
		api.POST("/ingest", s.ingestAll)
		api.POST("/ingest/:sourceId", s.ingestSource)
		api.GET("/sources/:sourceId/status", s.sourceStatus)
		api.DELETE("/sources/:sourceId/documents", s.purgeSource)
	}
	if s.ports.Source != nil {
		api.GET("/sources", s.listSources)
	}
	if s.ports.Document != nil {
		api.GET("/sources/:sourceId/documents", s.sourceDocuments)
		api.GET("/documents/:documentId", s.getDocument)
		api.GET("/documents/:documentId/chunks", s.documentChunks)
	}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// and waits for background ingestion runs to stop.
func (s *Server) Run(ctx context.Context, addr string) error {
	bg, cancel := context.WithCancel(ctx)
	defer cancel()
	s.base = bg

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer stop()
	err := s.echo.Shutdown(shutdownCtx)
	cancel()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// background runs fn detached from the request that started it.
func (s *Server) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.base)
	}()
}

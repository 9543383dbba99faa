// Package api exposes the calculator over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/service"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of the calculator.
type Server struct {
	cfg    config.HTTPConfig
	calc   *service.Calculator
	engine *gin.Engine

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg config.HTTPConfig, calc *service.Calculator) *Server {
	s := &Server{cfg: cfg, calc: calc}
	s.engine = s.routes()
	return s
}

// Handler returns the routed handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound address once Run has started listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "address", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}

func (s *Server) routes() *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(requestLogger())

	g.GET("/health", s.health)

	api := g.Group("/api")
	api.GET("/operators", s.listOperators)
	api.POST("/operators", s.createOperator)
	api.GET("/operators/:id", s.getOperator)
	api.PUT("/operators/:id", s.updateOperator)
	api.DELETE("/operators/:id", s.deleteOperator)

	api.POST("/calculate", s.calculate)
	api.POST("/compare", s.compare)
	api.POST("/curve", s.curve)

	api.GET("/history", s.history)
	api.GET("/imports", s.imports)
	api.POST("/import", s.importFile)
	api.GET("/export", s.export)

	return g
}

// requestLogger logs every request at debug level through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

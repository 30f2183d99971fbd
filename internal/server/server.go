// Package server exposes dialect detection and log parsing over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"

	"github.com/ccollicutt/driverlog/pkg/config"
	"github.com/ccollicutt/driverlog/pkg/detector"
)

// Server serves the parse API.
type Server struct {
	cfg      config.ServerConfig
	version  string
	detector *detector.Detector
	engine   *gin.Engine
	srv      *http.Server
	parsers  fastjson.ParserPool
}

// New creates a Server with routes registered. The detector is shared across
// requests; it is stateless after construction.
func New(cfg config.ServerConfig, det *detector.Detector, version string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		cfg:      cfg,
		version:  version,
		detector: det,
		engine:   engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/detect", s.handleDetect)
		api.POST("/parse", s.handleParse)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the listener and blocks until ctx is canceled or the listener
// fails. Cancellation triggers a graceful shutdown with a 10s drain window.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	log.Info().Str("listen", s.cfg.Listen).Msg("server started")

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("server shutting down")
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) maxBodyBytes() int64 {
	if s.cfg.MaxBodyBytes > 0 {
		return s.cfg.MaxBodyBytes
	}
	return config.DefaultMaxBodyBytes
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

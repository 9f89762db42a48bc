// Package diag serves the node's diagnostics HTTP surface: health, link
// statistics, and prometheus metrics.
package diag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dmcree/airlink/internal/config"
	"github.com/dmcree/airlink/internal/link"
	"github.com/dmcree/airlink/internal/observability"
)

// StatsFunc snapshots the connection counters for /status.
type StatsFunc func() link.Stats

type Server struct {
	node      string
	addr      string
	router    *gin.Engine
	srv       *http.Server
	log       zerolog.Logger
	startedAt time.Time
}

func NewServer(cfg config.DiagConfig, node string, stats StatsFunc, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))

	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s := &Server{
		node:      node,
		addr:      cfg.Addr,
		router:    r,
		log:       logger.With().Str("component", "diag").Logger(),
		startedAt: time.Now(),
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"node":    s.node,
			"uptime":  time.Since(s.startedAt).String(),
			"service": "airlink-diag",
		})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, stats())
	})
	observability.RegisterMetrics()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", s.addr).Msg("diagnostics server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

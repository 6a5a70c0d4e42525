// Package api implements the HTTP API for permit-scraper.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/metrics"
)

const (
	healthCheckTimeout = 2 * time.Second
	shutdownTimeout    = 15 * time.Second
)

// Pinger checks a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps are the collaborators the router serves.
type RouterDeps struct {
	Handler *Handler
	Metrics *metrics.Metrics
	// DB is pinged by /health when set.
	DB      Pinger
	Logger  logger.Logger
	Version string
	Debug   bool
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(d RouterDeps) *gin.Engine {
	log := logger.OrNop(d.Logger)

	if d.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware(log))
	router.Use(LoggerMiddleware(log))

	router.GET("/health", healthHandler(d.DB, d.Version))
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	h := d.Handler
	v1 := router.Group("/api/v1")
	v1.GET("/platforms", h.Platforms)
	v1.POST("/detect", h.Detect)
	v1.POST("/extract", h.Extract)

	if h.records != nil {
		v1.GET("/records", h.ListRecords)
		v1.GET("/records/:id", h.GetRecord)
		v1.GET("/export/records.xlsx", h.ExportRecords)
	}
	if h.jobs != nil {
		v1.POST("/jobs", h.CreateJob)
		v1.GET("/jobs", h.ListJobs)
		v1.GET("/jobs/:id", h.GetJob)
	}

	return router
}

func healthHandler(db Pinger, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "unreachable",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "permit-scraper",
			"version": version,
		})
	}
}

// Server is the HTTP server with graceful shutdown.
type Server struct {
	server *http.Server
	logger logger.Logger
}

// NewServer wraps router in an http.Server configured from cfg.
func NewServer(cfg config.ServerConfig, router http.Handler, log logger.Logger) *Server {
	cfg.SetDefaults()

	return &Server{
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger.OrNop(log),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			logger.String("address", s.server.Addr),
			logger.Duration("read_timeout", s.server.ReadTimeout),
			logger.Duration("write_timeout", s.server.WriteTimeout),
		)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", logger.Duration("timeout", shutdownTimeout))
	}

	// ctx is already done; shutdown needs a fresh deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// Package server exposes profile analyses over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/service"
)

// Analyzer produces a report for a username. *service.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, username string) service.Report
	TopN() int
}

// Options configures a Server.
type Options struct {
	// AllowOrigins restricts CORS. Empty allows any origin.
	AllowOrigins []string
	// Version is reported by the health endpoint.
	Version string
}

// Server is the gitgazer HTTP API.
type Server struct {
	analyzer Analyzer
	router   *gin.Engine
	version  string
}

// New builds the router and registers every route.
func New(analyzer Analyzer, opts Options) *Server {
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		analyzer: analyzer,
		router:   gin.New(),
		version:  opts.Version,
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(accessLog())
	s.router.Use(cors.New(corsConfig(opts.AllowOrigins)))

	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")
	{
		profiles := v1.Group("/profiles/:username")
		profiles.GET("", s.profile)
		profiles.GET("/languages", s.languages)
		profiles.GET("/top", s.top)
		profiles.GET("/timeline", s.timeline)
		profiles.GET("/repositories", s.repositories)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Package server exposes the resolution pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/solace/ai/chat"
	"github.com/hrygo/solace/ai/metrics"
	"github.com/hrygo/solace/internal/profile"
	"github.com/hrygo/solace/store"
)

// sessionPruneInterval controls background cleanup of idle sessions.
const (
	sessionPruneInterval = 10 * time.Minute
	sessionMaxIdle       = 2 * time.Hour
)

// Server wires the HTTP routes to the pipeline.
type Server struct {
	e        *echo.Echo
	profile  *profile.Profile
	pipeline *chat.Pipeline
	sessions *chat.Manager
	exporter *metrics.PrometheusExporter
	store    *store.Store // nil in demo mode
}

// New creates the HTTP server.
func New(prof *profile.Profile, pipeline *chat.Pipeline, sessions *chat.Manager, exporter *metrics.PrometheusExporter, st *store.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	s := &Server{
		e:        e,
		profile:  prof,
		pipeline: pipeline,
		sessions: sessions,
		exporter: exporter,
		store:    st,
	}

	api := e.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/health", s.handleHealth)
	api.GET("/insights", s.handleInsights)
	api.GET("/sessions/:id/transcript", s.handleTranscript)

	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	return s
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.e }

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server: listening", "addr", addr, "mode", s.profile.Mode)

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessions.Prune(sessionMaxIdle); removed > 0 {
				slog.Info("server: pruned idle sessions", "removed", removed)
			}
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}

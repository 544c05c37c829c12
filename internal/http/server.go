// Package http exposes the orchestrator over an echo HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designorch/internal/logging"
	"github.com/fyrsmithlabs/designorch/internal/orchestrator"
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Orchestrator is the subset of the orchestrator facade the server uses.
type Orchestrator interface {
	ProcessDesignSpec(ctx context.Context, design task.Design, req task.Requirements, opts task.Options) *orchestrator.Result
	ProviderStatus() map[string]provider.Status
	TestProviderConnections(ctx context.Context) map[string]bool
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	Version     string
	DefaultMode task.ExecutionMode
	BodyLimit   string

	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server provides HTTP endpoints for designorch.
type Server struct {
	echo   *echo.Echo
	orch   Orchestrator
	logger *logging.Logger
	config *Config
}

// NewServer creates a new HTTP server.
func NewServer(orch Orchestrator, logger *logging.Logger, cfg *Config) (*Server, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9090}
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "4M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:   e,
		orch:   orch,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.config.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/providers", s.handleProviders)
	v1.POST("/providers/probe", s.handleProbe)
	v1.POST("/orchestrate", s.handleOrchestrate)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.config.Version,
		Providers: len(s.orch.ProviderStatus()),
	})
}

func (s *Server) handleProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, ProvidersResponse{Providers: s.orch.ProviderStatus()})
}

func (s *Server) handleProbe(c echo.Context) error {
	results := s.orch.TestProviderConnections(c.Request().Context())
	return c.JSON(http.StatusOK, ProbeResponse{Results: results})
}

// handleOrchestrate runs one design. A run-level failure is reported with
// 422 and the failed result as body; per-task failures still return 200.
func (s *Server) handleOrchestrate(c echo.Context) error {
	var req OrchestrateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid orchestrate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Design == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "design field is required")
	}
	if req.Options.Mode == "" {
		req.Options.Mode = s.config.DefaultMode
	}

	result := s.orch.ProcessDesignSpec(c.Request().Context(), req.Design, req.Requirements, req.Options)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, result)
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/radio-control/cellinfo/internal/auth"
	"github.com/radio-control/cellinfo/internal/command"
)

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// BodyLimit caps request bodies, in echo's size notation.
	BodyLimit string
}

// Option configures optional server features.
type Option func(*Server)

// WithAuth protects every route except health and metrics.
func WithAuth(m *auth.Middleware) Option {
	return func(s *Server) { s.authMiddleware = m }
}

// WithRateLimit applies a shared token bucket to the API routes.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the HTTP API server.
type Server struct {
	echo           *echo.Echo
	orchestrator   OrchestratorPort
	telemetryHub   TelemetryPort
	authMiddleware *auth.Middleware
	limiter        *rate.Limiter
	metricsHandler http.Handler
	methods        map[string]methodHandler
	config         Config
	version        string
	startTime      time.Time
	logger         *zap.Logger
}

// NewServer creates an API server. telemetryHub may be nil, in which case
// the telemetry endpoint answers UNAVAILABLE.
func NewServer(cfg Config, orchestrator OrchestratorPort, telemetryHub TelemetryPort, logger *zap.Logger, opts ...Option) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "64K"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		orchestrator: orchestrator,
		telemetryHub: telemetryHub,
		config:       cfg,
		version:      "dev",
		startTime:    time.Now(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.methods = s.rpcMethods()

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(s.requestContext)
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on the configured address until Shutdown.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.IdleTimeout

	s.logger.Info("starting http server", zap.String("addr", s.config.Addr))
	if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// requestContext carries the request ID into the call context and logs
// the request once it completes.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(command.WithRequestID(req.Context(), id)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Info("http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", id),
		)
		return nil
	}
}

// rateLimit rejects requests once the shared bucket is empty.
func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.limiter != nil && !s.limiter.Allow() {
			return ErrRateLimited
		}
		return next(c)
	}
}

// handleError renders every error returned by a handler or middleware.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := ToRPCError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}

	resp := ErrorResponse{Error: body, CorrelationID: c.Response().Header().Get(echo.HeaderXRequestID)}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}

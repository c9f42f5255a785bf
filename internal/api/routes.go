package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/auth"
)

// CellInfoMethods are the accepted names of the cell info operation.
var CellInfoMethods = []string{"getAllCellInfo", "cell_info", "getCellInfo"}

// methodHandler answers one JSON-RPC method with a rendered result.
type methodHandler func(ctx context.Context, method string) ([]byte, error)

func (s *Server) rpcMethods() map[string]methodHandler {
	methods := make(map[string]methodHandler, len(CellInfoMethods))
	for _, name := range CellInfoMethods {
		methods[name] = s.callCellInfo
	}
	return methods
}

// Methods returns the registered JSON-RPC method names, sorted.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registerRoutes registers every endpoint.
func (s *Server) registerRoutes() {
	// Health and metrics stay reachable without credentials.
	s.echo.GET("/api/v1/health", s.handleHealth)
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	v1 := s.echo.Group("/api/v1", s.rateLimit)
	if s.authMiddleware != nil {
		v1.Use(s.authMiddleware.RequireAuth())
	}

	v1.POST("/rpc", s.handleRPC, s.requireScope(auth.ScopeLocation))
	v1.GET("/cells", s.handleCells, s.requireScope(auth.ScopeLocation))
	v1.GET("/platforms", s.handlePlatforms, s.requireScope(auth.ScopeLocation))
	v1.GET("/telemetry", s.handleTelemetry, s.requireScope(auth.ScopeTelemetry))
}

func (s *Server) requireScope(scope string) echo.MiddlewareFunc {
	if s.authMiddleware == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return s.authMiddleware.RequireScope(scope)
}

// handleRPC handles POST /api/v1/rpc. Call outcomes, errors included, are
// answered with 200 and a JSON-RPC envelope.
func (s *Server) handleRPC(c echo.Context) error {
	req, err := decodeRPCRequest(c.Request().Body)
	if err != nil {
		s.logger.Debug("malformed rpc request", zap.Error(err))
		return writeRPCError(c, responseID(req), err)
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		s.logger.Debug("unknown rpc method", zap.String("method", req.Method))
		return writeRPCError(c, responseID(req), ErrNotImplemented)
	}

	result, err := handler(c.Request().Context(), req.Method)
	if err != nil {
		return writeRPCError(c, responseID(req), err)
	}
	return writeRPCResult(c, responseID(req), result)
}

// handleCells handles GET /api/v1/cells.
func (s *Server) handleCells(c echo.Context) error {
	body, err := s.callCellInfo(c.Request().Context(), CellInfoMethods[0])
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (s *Server) callCellInfo(ctx context.Context, method string) ([]byte, error) {
	res, err := s.orchestrator.GetCellInfo(ctx, method)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// handlePlatforms handles GET /api/v1/platforms.
func (s *Server) handlePlatforms(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orchestrator.Platforms())
}

// handleTelemetry handles GET /api/v1/telemetry.
func (s *Server) handleTelemetry(c echo.Context) error {
	if s.telemetryHub == nil {
		return ErrUnavailable
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(c.Response()).SetWriteDeadline(time.Time{})

	if err := s.telemetryHub.Subscribe(c.Request().Context(), c.Response(), c.Request()); err != nil {
		s.logger.Warn("telemetry subscription ended with error", zap.Error(err))
		return ErrUnavailable
	}
	return nil
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status           string  `json:"status"`
	UptimeSec        float64 `json:"uptimeSec"`
	Version          string  `json:"version"`
	ActivePlatform   string  `json:"activePlatform,omitempty"`
	TelemetryClients int     `json:"telemetryClients"`
}

// handleHealth handles GET /api/v1/health. Without an active platform the
// service is degraded and answers 503.
func (s *Server) handleHealth(c echo.Context) error {
	health := HealthResponse{
		Status:    "ok",
		UptimeSec: time.Since(s.startTime).Seconds(),
		Version:   s.version,
	}
	if s.telemetryHub != nil {
		health.TelemetryClients = s.telemetryHub.Clients()
	}

	list := s.orchestrator.Platforms()
	health.ActivePlatform = list.ActiveID
	if list.ActiveID == "" {
		health.Status = "degraded"
		return c.JSON(http.StatusServiceUnavailable, health)
	}
	return c.JSON(http.StatusOK, health)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/adapter/simulator"
	"github.com/radio-control/cellinfo/internal/api"
	"github.com/radio-control/cellinfo/internal/audit"
	"github.com/radio-control/cellinfo/internal/auth"
	"github.com/radio-control/cellinfo/internal/capability"
	"github.com/radio-control/cellinfo/internal/command"
	"github.com/radio-control/cellinfo/internal/config"
	"github.com/radio-control/cellinfo/internal/metrics"
	"github.com/radio-control/cellinfo/internal/platform"
	"github.com/radio-control/cellinfo/internal/telemetry"
)

// app holds the wired components shared by serve and get.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	platforms    *platform.Manager
	orchestrator *command.Orchestrator
	hub          *telemetry.Hub
	auditLog     *audit.Logger
	authMW       *auth.Middleware
}

// newApp wires everything except the HTTP server.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	source, err := newPlatformAdapter(cfg.Platform)
	if err != nil {
		return nil, err
	}
	a.platforms = platform.NewManager()
	if err := a.platforms.Register(cfg.Platform.Kind, source); err != nil {
		return nil, fmt.Errorf("failed to register platform: %w", err)
	}

	a.orchestrator = command.NewOrchestrator(a.platforms, logger)
	a.orchestrator.SetAugment(cfg.Platform.Augment)
	a.orchestrator.SetLiveTimeout(cfg.Server.AcquireTimeout)
	a.orchestrator.SetMetrics(a.metrics)

	a.hub = telemetry.NewHub(cfg.Telemetry, a.metrics, logger)
	a.orchestrator.SetPublisher(a.hub)

	if cfg.Audit.Enabled {
		a.auditLog, err = audit.NewLogger(audit.Config{
			Path:       cfg.Audit.Path,
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
			Compress:   cfg.Audit.Compress,
		}, logger)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
		}
		a.orchestrator.SetAuditLogger(a.auditLog)
	}

	if cfg.Auth.Enabled {
		verifier, err := newVerifier(ctx, cfg.Auth)
		if err != nil {
			_ = a.close()
			return nil, err
		}
		a.authMW = auth.NewMiddleware(verifier, "/api/v1/health", "/metrics")
		a.orchestrator.SetGate(capability.ScopeGate{Scope: cfg.Auth.RequiredScope})
	}

	logger.Info("cellinfod initialized",
		zap.String("platform", cfg.Platform.ID),
		zap.Int("revision", cfg.Platform.Revision),
		zap.Bool("auth", cfg.Auth.Enabled),
		zap.Bool("audit", cfg.Audit.Enabled))
	return a, nil
}

func newPlatformAdapter(cfg config.PlatformConfig) (*simulator.Simulator, error) {
	if cfg.Kind != "simulator" {
		return nil, fmt.Errorf("unsupported platform kind %q", cfg.Kind)
	}

	scenario := simulator.DefaultScenario(cfg.ID, cfg.Revision)
	if cfg.Scenario != "" {
		var err error
		scenario, err = simulator.LoadScenario(cfg.Scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
	}

	sim, err := simulator.New(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}
	return sim, nil
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (*auth.Verifier, error) {
	vc := auth.VerifierConfig{
		Algorithm: cfg.Algorithm,
		SecretKey: cfg.SecretKey,
		JWKSURL:   cfg.JWKSURL,
	}
	if cfg.PublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		vc.PublicKeyPEM = string(pem)
	}

	verifier, err := auth.NewVerifier(ctx, vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}
	return verifier, nil
}

// newServer builds the HTTP API over the app.
func (a *app) newServer() (*api.Server, error) {
	opts := []api.Option{
		api.WithVersion(version),
		api.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
	}
	if a.authMW != nil {
		opts = append(opts, api.WithAuth(a.authMW))
	}
	if a.cfg.RateLimit.Enabled {
		opts = append(opts, api.WithRateLimit(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst))
	}

	return api.NewServer(api.Config{
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}, a.orchestrator, a.hub, a.logger, opts...)
}

// close releases the hub and the audit log.
func (a *app) close() error {
	a.hub.Stop()
	if a.auditLog == nil {
		return nil
	}
	if err := a.auditLog.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close audit logger: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radio-control/cellinfo/internal/config"
	"github.com/radio-control/cellinfo/internal/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the cell info HTTP API until SIGINT or SIGTERM.

Endpoints:
  POST /api/v1/rpc        JSON-RPC getAllCellInfo, cell_info, getCellInfo
  GET  /api/v1/cells      the same call as a plain GET
  GET  /api/v1/platforms  registered platform adapters
  GET  /api/v1/telemetry  SSE stream of call events
  GET  /api/v1/health     liveness
  GET  /metrics           Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logging.Sync(logger) }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs the server until ctx ends, then shuts everything down within
// the configured shutdown timeout.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	server, err := a.newServer()
	if err != nil {
		_ = a.close()
		return fmt.Errorf("failed to create API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Telemetry streams hold connections open, so the hub goes first.
		a.hub.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return a.close()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("cellinfod stopped")
	return nil
}

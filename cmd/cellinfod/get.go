package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radio-control/cellinfo/internal/api"
	"github.com/radio-control/cellinfo/internal/config"
	"github.com/radio-control/cellinfo/internal/logging"
)

type getOptions struct {
	method string
}

func newGetCmd(root *rootOptions) *cobra.Command {
	opts := &getOptions{}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Run one cell info call and print the result",
		Long: `Run one cell info call against the configured platform and print the JSON
array to stdout. Failures print the error code to stderr and exit non-zero.

Examples:
  # Query the built-in android simulator
  cellinfod get

  # Query a scenario file
  CELLINFO_PLATFORM_SCENARIO=scenarios/offline.yaml cellinfod get`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logging.Sync(logger) }()

			return runGet(cmd, cfg, opts, logger)
		},
	}

	cmd.Flags().StringVar(&opts.method, "method", api.CellInfoMethods[0], "method name to record for the call")
	return cmd
}

func runGet(cmd *cobra.Command, cfg *config.Config, opts *getOptions, logger *zap.Logger) error {
	if !slices.Contains(api.CellInfoMethods, opts.method) {
		return fmt.Errorf("%s: unknown method %q", api.CodeNotImplemented, opts.method)
	}

	// The CLI runs locally; token checks only apply to the HTTP API.
	cfg.Auth.Enabled = false

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	res, err := a.orchestrator.GetCellInfo(ctx, opts.method)
	if err != nil {
		_, rpcErr := api.ToRPCError(err)
		return fmt.Errorf("%s: %s", rpcErr.Code, rpcErr.Message)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(res.Body))
	return err
}

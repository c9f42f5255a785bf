package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radio-control/cellinfo/internal/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cellinfod",
		Short: "Cell telemetry acquisition service",
		Long: `cellinfod reports the cellular cells visible to a device's modem as a JSON
array, preferring a fresh live scan and falling back to the platform's cached
list.

Configuration is read from the --config YAML file and CELLINFO_* environment
variables, e.g. CELLINFO_SERVER_ADDR=:9090.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")

	root.AddCommand(newServeCmd(opts), newGetCmd(opts), newVersionCmd())
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cellinfod %s\n", version)
			return err
		},
	}
}

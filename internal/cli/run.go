package cli

import (
	"github.com/spf13/cobra"
)

const defaultConfigFile = "configs/config.yaml"

type RunOptions struct {
	ConfigFile string
	DryRun     bool
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one extraction cycle and exit",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runSync(c.Context(), opts, c.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", defaultConfigFile, "Path to YAML config file (optional)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Fetch and clean without writing anything")
	return cmd
}

func NewWatermarkCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Print the stored watermark",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return showWatermark(c.Context(), opts, c.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", defaultConfigFile, "Path to YAML config file (optional)")
	return cmd
}

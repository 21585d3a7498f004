// Package cli wires the configuration, stores and pipeline behind cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "activity-etl",
		Short: "activity-etl - incremental Strava activity loader",
		Long: `activity-etl pulls activities newer than the stored watermark from the
Strava API, cleans them and replaces the activity table in the configured
SQL store. Each run is one extraction cycle; schedule it externally.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd(), NewWatermarkCmd())

	return rootCmd
}

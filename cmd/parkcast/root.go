package main

import (
	"context"

	"github.com/spf13/cobra"
)

// Linker flags set at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parkcast",
		Short:         "Forecast monthly park visitation with automatic seasonal ARIMA.",
		Long:          `Parkcast fits one seasonal ARIMA model per visitor series, scores its forecast on a held-out tail and writes models, summaries, plots and a run report.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.AddCommand(newTrainCmd(), newVersionCmd())
	return root
}

func execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

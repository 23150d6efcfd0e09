package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmdCtx := newCommandContext()

	root := &cobra.Command{
		Use:   "tempo",
		Short: "Streaming snapshot metrics pipeline",
		Long: "Tempo collects streaming service snapshots, derives per-interval metrics, " +
			"and renders summaries, charts, and reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return cmdCtx.ensureConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cmdCtx.configPath, "config", "c", "", "Path to the tempo configuration file")
	flags.StringVar(&cmdCtx.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newRenderCommand(cmdCtx),
		newCollectCommand(cmdCtx),
		newExportCommand(cmdCtx),
		newStatusCommand(cmdCtx),
		newCatalogCommand(cmdCtx),
		newConfigCommand(cmdCtx),
	)

	return root
}

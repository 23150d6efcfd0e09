package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tempo/internal/ingest"
	"tempo/internal/metrics"
	"tempo/internal/normalize"
	"tempo/internal/series"
	"tempo/internal/store"
	"tempo/internal/summary"
)

func newExportCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		input  string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the rendered dataset to a SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.configValue()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.loggerValue()
			if err != nil {
				return err
			}
			if input == "" {
				input = cfg.Paths.DataDir
			}
			if dbPath == "" {
				dbPath = cfg.DatabasePath()
			}
			counters := cfg.Pipeline.Counters
			if len(counters) == 0 {
				counters = series.DefaultCounters
			}

			loaded, err := ingest.NewLoader(logger).Load(cmd.Context(), input)
			if err != nil {
				return err
			}
			normalized := normalize.New(logger, counters).Normalize(loaded.Records)
			derived := metrics.NewEngine(logger, counters).Compute(normalized.Points)
			aggregated := summary.New(logger, counters).Aggregate(derived.Points)

			st, err := store.OpenAt(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ExportDataset(cmd.Context(), store.Dataset{
				Counters:  counters,
				Points:    derived.Points,
				Summaries: aggregated.Summaries,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d points and %d summaries to %s\n",
				len(derived.Points), len(aggregated.Summaries), dbPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "Snapshot file or directory (defaults to the configured data directory)")
	flags.StringVar(&dbPath, "db", "", "Database file (defaults to the configured run database)")
	return cmd
}

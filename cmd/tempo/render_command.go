package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tempo/internal/render"
	"tempo/internal/summary"
)

func newRenderCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		input  string
		outDir string
		source string
		itemID string
		topN   int
		charts bool
		html   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render summaries, charts, and reports from collected snapshots",
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
			if outDir == "" {
				outDir = cfg.Paths.OutputDir
			}

			stats, err := render.New(logger, cfg.Pipeline.Counters).Render(cmd.Context(), render.Options{
				Input:  input,
				OutDir: outDir,
				Source: source,
				ItemID: itemID,
				TopN:   topN,
				Charts: charts,
				HTML:   html,
			})
			if err != nil {
				return err
			}

			printRenderStats(cmd.OutOrStdout(), stats, outDir)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "Snapshot file or directory (defaults to the configured data directory)")
	flags.StringVarP(&outDir, "outdir", "o", "", "Output directory (defaults to the configured output directory)")
	flags.StringVar(&source, "source", "", "Render only points from this source")
	flags.StringVar(&itemID, "item-id", "", "Render only points for this item id")
	flags.IntVar(&topN, "top-n", 10, "Number of items on the per-source ranking charts")
	flags.BoolVar(&charts, "charts", true, "Write SVG charts")
	flags.BoolVar(&html, "html", true, "Write HTML reports")
	return cmd
}

func printRenderStats(out io.Writer, stats *render.Stats, outDir string) {
	fmt.Fprintf(out, "Read %d records from %d files", stats.RecordsIn, stats.Files)
	if dropped := stats.InvalidLines + stats.DuplicatesDropped + stats.InvalidTimestamps; dropped > 0 {
		fmt.Fprintf(out, " (dropped %d invalid lines, %d duplicates, %d invalid timestamps)",
			stats.InvalidLines, stats.DuplicatesDropped, stats.InvalidTimestamps)
	}
	fmt.Fprintln(out)

	if stats.Points == 0 {
		fmt.Fprintln(out, "No data points to render.")
		return
	}

	fmt.Fprintln(out, renderTotalsTable(out, stats.Totals))
	fmt.Fprintf(out, "Wrote %d files to %s\n", len(stats.Outputs), outDir)
}

func renderTotalsTable(out io.Writer, totals []summary.SourceTotals) string {
	rows := make([][]string, 0, len(totals))
	for _, total := range totals {
		rows = append(rows, []string{
			total.Source,
			strconv.Itoa(total.Items),
			strconv.Itoa(total.Points),
			strconv.Itoa(total.Anomalies),
		})
	}
	return renderTable(out,
		[]string{"SOURCE", "ITEMS", "POINTS", "ANOMALIES"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
}

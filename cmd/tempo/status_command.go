package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/config"
	"tempo/internal/daemon"
	"tempo/internal/preflight"
	"tempo/internal/store"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state, preflight checks, and recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.configValue()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			fmt.Fprintln(out, renderSectionHeader("Daemon", colorize))
			state := daemon.ReadState(cfg)
			kind, message := statusInfo, "not running"
			switch {
			case state.Running && state.PID > 0:
				kind, message = statusOK, fmt.Sprintf("running (pid %d)", state.PID)
			case state.Running:
				kind, message = statusOK, "running"
			case state.PID > 0:
				kind, message = statusWarn, "not running (stale pid file)"
			}
			fmt.Fprintln(out, renderStatusLine("Daemon", kind, message, colorize))

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Preflight", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Recent runs", colorize))
			if !cfg.Store.Enabled {
				fmt.Fprintln(out, statusIndent+"Run history is disabled.")
				return nil
			}
			return printRunHistory(cmd, out, cfg, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent runs to list")
	return cmd
}

func printRunHistory(cmd *cobra.Command, out io.Writer, cfg *config.Config, limit int) error {
	st, err := store.OpenAt(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, statusIndent+"No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Trigger,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			runDuration(run),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Records),
			truncate(run.ErrorMessage, 40),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"RUN", "TRIGGER", "STARTED", "DURATION", "OK", "FAILED", "RECORDS", "ERROR"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}))

	totals, err := st.Totals(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d runs recorded, %d records collected, %d failed runs\n",
		totals.Runs, totals.Records, totals.FailedRuns)
	return nil
}

func runDuration(run *store.Run) string {
	if run.FinishedAt == nil {
		return "running"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

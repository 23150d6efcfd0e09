// Package render orchestrates the batch pipeline: load snapshots, normalize
// them, derive metrics, aggregate summaries, and write the output artifacts.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"tempo/internal/ingest"
	"tempo/internal/logging"
	"tempo/internal/metrics"
	"tempo/internal/normalize"
	"tempo/internal/report"
	"tempo/internal/series"
	"tempo/internal/summary"
)

// Options selects the input, output, and artifact mix for one render pass.
type Options struct {
	// Input is a JSONL file or a directory walked recursively.
	Input string
	// OutDir is the output root; csv/, charts/, and reports/ live below it.
	OutDir string
	// Source, when set, keeps only points from that source (exact match,
	// applied after normalization). ItemID works the same way.
	Source string
	ItemID string
	// TopN bounds the per-source ranking charts.
	TopN int
	// Charts and HTML toggle the chart and report artifacts. The summary
	// CSVs are always written.
	Charts bool
	HTML   bool
}

// Stats reports what a render pass consumed and produced.
type Stats struct {
	Files             int
	RecordsIn         int
	InvalidLines      int
	DuplicatesDropped int
	InvalidTimestamps int
	Points            int
	Items             int
	Anomalies         int
	Totals            []summary.SourceTotals
	Outputs           []string
}

// Renderer runs the pipeline over on-disk snapshots.
type Renderer struct {
	counters []string
	logger   *slog.Logger
}

// New returns a Renderer for the configured counters. An empty counter list
// falls back to series.DefaultCounters.
func New(logger *slog.Logger, counters []string) *Renderer {
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}
	return &Renderer{counters: counters, logger: logging.NewComponentLogger(logger, "render")}
}

// Render executes one pass. An input that yields no records, or a filter
// that matches nothing, logs and returns empty stats without error.
func (r *Renderer) Render(ctx context.Context, opts Options) (*Stats, error) {
	if opts.Input == "" {
		return nil, errors.New("render: input path required")
	}
	if opts.OutDir == "" {
		return nil, errors.New("render: output directory required")
	}

	loaded, err := ingest.NewLoader(r.logger).Load(ctx, opts.Input)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Files:        len(loaded.Files),
		RecordsIn:    len(loaded.Records),
		InvalidLines: loaded.InvalidLines,
	}
	if len(loaded.Records) == 0 {
		r.logger.Info("no records found, nothing to render", slog.String("input", opts.Input))
		return stats, nil
	}

	normalized := normalize.New(r.logger, r.counters).Normalize(loaded.Records)
	stats.DuplicatesDropped = normalized.DuplicatesDropped
	stats.InvalidTimestamps = normalized.InvalidTimestamps

	points := filterPoints(normalized.Points, opts.Source, opts.ItemID)
	stats.Points = len(points)
	if len(points) == 0 {
		r.logger.Info("no points left after filtering, nothing to render",
			slog.String("source", opts.Source),
			slog.String("item_id", opts.ItemID))
		return stats, nil
	}

	derived := metrics.NewEngine(r.logger, r.counters).Compute(points)
	stats.Anomalies = derived.AnomalousPoints

	aggregated := summary.New(r.logger, r.counters).Aggregate(derived.Points)
	stats.Items = len(aggregated.Summaries)
	stats.Totals = aggregated.Totals

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return stats, fmt.Errorf("ensure output directory: %w", err)
	}
	writer := report.NewWriter(r.logger, opts.OutDir, r.counters)

	files, err := writer.WriteSummaryCSV(aggregated)
	stats.Outputs = append(stats.Outputs, files...)
	if err != nil {
		return stats, err
	}

	if opts.Charts {
		files, err = writer.WriteCharts(derived, opts.TopN)
		stats.Outputs = append(stats.Outputs, files...)
		if err != nil {
			return stats, err
		}
	}
	if opts.HTML {
		files, err = writer.WriteReports(derived, aggregated)
		stats.Outputs = append(stats.Outputs, files...)
		if err != nil {
			return stats, err
		}
	}

	r.logger.Info("render complete",
		slog.Int("records", stats.RecordsIn),
		slog.Int("points", stats.Points),
		slog.Int("items", stats.Items),
		slog.Int("anomalies", stats.Anomalies),
		slog.Int("outputs", len(stats.Outputs)))
	return stats, nil
}

// filterPoints returns a fresh slice holding the points that match the
// optional source and item filters.
func filterPoints(points []series.Point, source, itemID string) []series.Point {
	if source == "" && itemID == "" {
		return points
	}
	out := make([]series.Point, 0, len(points))
	for _, point := range points {
		if source != "" && point.Source != source {
			continue
		}
		if itemID != "" && point.ItemID != itemID {
			continue
		}
		out = append(out, point)
	}
	return out
}

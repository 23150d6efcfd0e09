package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"tempo/internal/metrics"
	"tempo/internal/series"
)

// WriteCharts writes per-item totals and delta line charts plus per-source
// top-N bar charts under <outdir>/charts, returning the written paths.
// topN bounds the bar chart size; values below 1 fall back to 5.
func (w *Writer) WriteCharts(result *metrics.Result, topN int) ([]string, error) {
	if len(result.Points) == 0 {
		return nil, nil
	}
	if topN < 1 {
		topN = 5
	}

	dir := filepath.Join(w.outDir, "charts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure charts directory: %w", err)
	}

	groups := groupPoints(result.Points)

	var written []string
	for _, group := range groups {
		base := fileToken(group.source) + "_" + fileToken(group.itemID)

		totals := renderLineChart(group.displayName()+" totals", w.totalsSeries(group))
		path := filepath.Join(dir, base+"_totals.svg")
		if err := os.WriteFile(path, totals, 0o644); err != nil {
			return written, fmt.Errorf("write totals chart: %w", err)
		}
		written = append(written, path)

		deltas := renderLineChart(group.displayName()+" deltas", w.deltaSeries(group))
		path = filepath.Join(dir, base+"_delta.svg")
		if err := os.WriteFile(path, deltas, 0o644); err != nil {
			return written, fmt.Errorf("write delta chart: %w", err)
		}
		written = append(written, path)
	}

	bySource := make(map[string][]itemGroup)
	var sources []string
	for _, group := range groups {
		if _, ok := bySource[group.source]; !ok {
			sources = append(sources, group.source)
		}
		bySource[group.source] = append(bySource[group.source], group)
	}
	sort.Strings(sources)

	primary := w.counters[0]
	for _, source := range sources {
		sourceGroups := bySource[source]

		title := fmt.Sprintf("%s top %d by last %s", source, topN, primary)
		bars := topByLastValue(sourceGroups, primary, topN)
		path := filepath.Join(dir, fmt.Sprintf("%s_top%d_totals.svg", fileToken(source), topN))
		if err := os.WriteFile(path, renderBarChart(title, bars), 0o644); err != nil {
			return written, fmt.Errorf("write top totals chart: %w", err)
		}
		written = append(written, path)

		title = fmt.Sprintf("%s top %d by recent %s", source, topN, series.DeltaField(primary))
		bars = topByRecentDelta(sourceGroups, primary, topN)
		path = filepath.Join(dir, fmt.Sprintf("%s_top%d_delta.svg", fileToken(source), topN))
		if err := os.WriteFile(path, renderBarChart(title, bars), 0o644); err != nil {
			return written, fmt.Errorf("write top delta chart: %w", err)
		}
		written = append(written, path)
	}

	w.logger.Debug("charts written", slog.Int("files", len(written)))
	return written, nil
}

func (w *Writer) totalsSeries(group itemGroup) []chartSeries {
	out := make([]chartSeries, 0, len(w.counters))
	for _, counter := range w.counters {
		s := chartSeries{name: counter}
		for _, point := range group.points {
			if value, ok := point.Counter(counter); ok {
				s.points = append(s.points, chartPoint{ts: point.Timestamp, value: value})
			}
		}
		out = append(out, s)
	}
	return out
}

func (w *Writer) deltaSeries(group itemGroup) []chartSeries {
	out := make([]chartSeries, 0, len(w.counters))
	for _, counter := range w.counters {
		s := chartSeries{name: series.DeltaField(counter)}
		for _, point := range group.points {
			if value, ok := point.Delta(counter); ok {
				s.points = append(s.points, chartPoint{ts: point.Timestamp, value: value})
			}
		}
		out = append(out, s)
	}
	return out
}

// topByLastValue ranks items by the primary counter's value at their last
// point. Items whose last value is absent are excluded.
func topByLastValue(groups []itemGroup, counter string, n int) []chartBar {
	var bars []chartBar
	for _, group := range groups {
		last := group.points[len(group.points)-1]
		if value, ok := last.Counter(counter); ok {
			bars = append(bars, chartBar{label: group.displayName(), value: value})
		}
	}
	return takeTop(bars, n)
}

// topByRecentDelta ranks items by the mean of their last (up to) three
// present deltas of the primary counter. Items with no present deltas are
// excluded.
func topByRecentDelta(groups []itemGroup, counter string, n int) []chartBar {
	var bars []chartBar
	for _, group := range groups {
		var deltas []float64
		for _, point := range group.points {
			if value, ok := point.Delta(counter); ok {
				deltas = append(deltas, value)
			}
		}
		if len(deltas) == 0 {
			continue
		}
		if len(deltas) > 3 {
			deltas = deltas[len(deltas)-3:]
		}
		var sum float64
		for _, d := range deltas {
			sum += d
		}
		bars = append(bars, chartBar{label: group.displayName(), value: sum / float64(len(deltas))})
	}
	return takeTop(bars, n)
}

func takeTop(bars []chartBar, n int) []chartBar {
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].value != bars[j].value {
			return bars[i].value > bars[j].value
		}
		return bars[i].label < bars[j].label
	})
	if len(bars) > n {
		bars = bars[:n]
	}
	return bars
}

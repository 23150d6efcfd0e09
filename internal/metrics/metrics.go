package metrics

import (
	"log/slog"

	"tempo/internal/logging"
	"tempo/internal/series"
)

// Result carries the derived series and the global anomaly count.
type Result struct {
	Points []series.MetricPoint
	// AnomalousPoints counts points where any present counter delta was
	// negative, which on cumulative counters signals a source-side reset
	// or correction.
	AnomalousPoints int
}

// Engine computes deltas, gaps, and rates for the configured counters.
type Engine struct {
	counters []string
	logger   *slog.Logger
}

// NewEngine returns an Engine for the given counter fields. An empty
// counter list falls back to series.DefaultCounters.
func NewEngine(logger *slog.Logger, counters []string) *Engine {
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}
	return &Engine{
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "metrics"),
	}
}

// Compute walks the series and derives per-point metrics. Points must be
// ordered the way normalization leaves them, with each (source, item)
// group contiguous and ascending in time; group boundaries reset the
// previous-point reference. Compute never fails: whatever cannot be
// derived for a point is simply absent.
func (e *Engine) Compute(points []series.Point) *Result {
	result := &Result{Points: make([]series.MetricPoint, 0, len(points))}

	var prev *series.Point
	for i := range points {
		point := points[i]
		if prev != nil && prev.Key() != point.Key() {
			prev = nil
		}

		mp := series.MetricPoint{
			Point:  point,
			Deltas: make(map[string]float64, len(e.counters)),
			Rates:  make(map[string]float64, len(e.counters)),
		}

		if prev != nil {
			gap := point.Timestamp.Sub(prev.Timestamp).Minutes()
			mp.DeltaMinutes = &gap

			for _, counter := range e.counters {
				cur, curOK := point.Counter(counter)
				before, beforeOK := prev.Counter(counter)
				if !curOK || !beforeOK {
					continue
				}
				delta := cur - before
				mp.Deltas[counter] = delta
				if delta < 0 {
					mp.Anomaly = true
				}
				if gap > 0 {
					mp.Rates[counter] = delta / gap
				}
			}
		}

		if mp.Anomaly {
			result.AnomalousPoints++
		}
		result.Points = append(result.Points, mp)
		prev = &points[i]
	}

	if result.AnomalousPoints > 0 {
		e.logger.Warn("negative deltas detected on cumulative counters",
			slog.Int("points", result.AnomalousPoints))
	}
	e.logger.Debug("metrics complete",
		slog.Int("points", len(result.Points)),
		slog.Int("anomalies", result.AnomalousPoints))
	return result
}

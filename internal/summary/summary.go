package summary

import (
	"log/slog"
	"sort"

	"tempo/internal/logging"
	"tempo/internal/series"
)

// SourceTotals accumulates headline numbers for one source across all of
// its items.
type SourceTotals struct {
	Source    string
	Items     int
	Points    int
	Anomalies int
}

// Result carries one summary per (source, item) group, ordered like the
// input series, plus totals per source.
type Result struct {
	Summaries []series.Summary
	Totals    []SourceTotals
}

// TotalsFor returns the totals row for a source, if present.
func (r *Result) TotalsFor(source string) (SourceTotals, bool) {
	for _, totals := range r.Totals {
		if totals.Source == source {
			return totals, true
		}
	}
	return SourceTotals{}, false
}

// Aggregator folds metric points into per-item summaries.
type Aggregator struct {
	counters []string
	logger   *slog.Logger
}

// New returns an Aggregator over the given counter fields. An empty counter
// list falls back to series.DefaultCounters.
func New(logger *slog.Logger, counters []string) *Aggregator {
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}
	return &Aggregator{
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "summary"),
	}
}

// Aggregate reduces the series to one summary per contiguous
// (source, item) group. Points must arrive in the order normalization and
// metric derivation leave them.
func (a *Aggregator) Aggregate(points []series.MetricPoint) *Result {
	result := &Result{}
	if len(points) == 0 {
		return result
	}

	totals := make(map[string]*SourceTotals)
	start := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && points[i].Key() == points[start].Key() {
			continue
		}
		group := points[start:i]
		s := a.fold(group)
		result.Summaries = append(result.Summaries, s)

		t, ok := totals[s.Source]
		if !ok {
			t = &SourceTotals{Source: s.Source}
			totals[s.Source] = t
		}
		t.Items++
		t.Points += s.NumPoints
		t.Anomalies += s.NumAnomalies

		start = i
	}

	result.Totals = make([]SourceTotals, 0, len(totals))
	for _, t := range totals {
		result.Totals = append(result.Totals, *t)
	}
	sort.Slice(result.Totals, func(i, j int) bool {
		return result.Totals[i].Source < result.Totals[j].Source
	})

	a.logger.Debug("aggregation complete",
		slog.Int("groups", len(result.Summaries)),
		slog.Int("sources", len(result.Totals)))
	return result
}

func (a *Aggregator) fold(group []series.MetricPoint) series.Summary {
	first := group[0]
	last := group[len(group)-1]

	s := series.Summary{
		Source:         first.Source,
		ItemID:         first.ItemID,
		ItemName:       lastNonEmpty(last.ItemName, first.ItemName),
		ArtistName:     lastNonEmpty(last.ArtistName, first.ArtistName),
		FirstTimestamp: first.Timestamp,
		LastTimestamp:  last.Timestamp,
		First:          make(map[string]float64, len(a.counters)),
		Last:           make(map[string]float64, len(a.counters)),
		Net:            make(map[string]float64, len(a.counters)),
		AvgRate:        make(map[string]float64, len(a.counters)),
		NumPoints:      len(group),
	}

	for _, counter := range a.counters {
		firstVal, firstOK := first.Counter(counter)
		if firstOK {
			s.First[counter] = firstVal
		}
		lastVal, lastOK := last.Counter(counter)
		if lastOK {
			s.Last[counter] = lastVal
		}
		if firstOK && lastOK {
			s.Net[counter] = lastVal - firstVal
		}

		var sum float64
		var n int
		for _, point := range group {
			if rate, ok := point.Rate(counter); ok {
				sum += rate
				n++
			}
		}
		if n > 0 {
			s.AvgRate[counter] = sum / float64(n)
		}
	}

	for _, point := range group {
		if point.Anomaly {
			s.NumAnomalies++
		}
	}
	return s
}

func lastNonEmpty(last, first string) string {
	if last != "" {
		return last
	}
	return first
}

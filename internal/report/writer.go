package report

import (
	"log/slog"

	"tempo/internal/logging"
	"tempo/internal/series"
)

// Writer renders pipeline results into files under a single output root:
// csv/ for summaries, charts/ for SVG charts, reports/ for HTML reports.
type Writer struct {
	outDir   string
	counters []string
	logger   *slog.Logger
}

// NewWriter returns a Writer rooted at outDir. An empty counter list falls
// back to series.DefaultCounters; the first counter is the primary one used
// for top-N rankings.
func NewWriter(logger *slog.Logger, outDir string, counters []string) *Writer {
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}
	return &Writer{
		outDir:   outDir,
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "report"),
	}
}

// itemGroup is a contiguous run of points sharing a (source, item) key.
type itemGroup struct {
	source string
	itemID string
	points []series.MetricPoint
}

// displayName prefers the freshest non-empty item name and falls back to
// the item id.
func (g itemGroup) displayName() string {
	for i := len(g.points) - 1; i >= 0; i-- {
		if name := g.points[i].ItemName; name != "" {
			return name
		}
	}
	return g.itemID
}

func groupPoints(points []series.MetricPoint) []itemGroup {
	var groups []itemGroup
	start := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && points[i].Key() == points[start].Key() {
			continue
		}
		groups = append(groups, itemGroup{
			source: points[start].Source,
			itemID: points[start].ItemID,
			points: points[start:i],
		})
		start = i
	}
	return groups
}

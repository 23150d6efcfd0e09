package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tempo/internal/logging"
	"tempo/internal/metrics"
	"tempo/internal/report"
	"tempo/internal/series"
	"tempo/internal/summary"
)

var reportBase = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func seriesPoint(source, item string, minute int, counters map[string]float64) series.Point {
	return series.Point{
		Source:    source,
		ItemID:    item,
		Timestamp: reportBase.Add(time.Duration(minute) * time.Minute),
		Counters:  counters,
	}
}

func named(p series.Point, name, artist string) series.Point {
	p.ItemName = name
	p.ArtistName = artist
	return p
}

// buildResults runs the real derivation chain so fixtures carry the same
// shapes production data would.
func buildResults(points ...series.Point) (*metrics.Result, *summary.Result) {
	m := metrics.NewEngine(logging.NewNop(), nil).Compute(points)
	s := summary.New(logging.NewNop(), nil).Aggregate(m.Points)
	return m, s
}

func TestWriteSummaryCSVColumnsAndValues(t *testing.T) {
	outDir := t.TempDir()
	_, summaries := buildResults(
		named(seriesPoint("genie", "100", 0, map[string]float64{"total_plays": 100, "total_listeners": 10}), "Song A", "Artist A"),
		named(seriesPoint("genie", "100", 10, map[string]float64{"total_plays": 120, "total_listeners": 12}), "Song A", "Artist A"),
		seriesPoint("spotify", "900", 0, map[string]float64{"total_plays": 5, "total_listeners": 1}),
	)

	writer := report.NewWriter(logging.NewNop(), outDir, nil)
	files, err := writer.WriteSummaryCSV(summaries)
	if err != nil {
		t.Fatalf("WriteSummaryCSV returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want one per source", files)
	}

	content, err := os.ReadFile(filepath.Join(outDir, "csv", "genie_summary.csv"))
	if err != nil {
		t.Fatalf("read genie csv: %v", err)
	}
	if !bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("csv should start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one row", len(lines))
	}

	wantHeader := "source,item_id,item_name,artist_name,first_timestamp,last_timestamp," +
		"first_total_plays,last_total_plays,net_total_plays," +
		"first_total_listeners,last_total_listeners,net_total_listeners," +
		"avg_rate_total_plays_per_min,avg_rate_total_listeners_per_min," +
		"num_points,num_anomalies_negative_diff"
	if lines[0] != wantHeader {
		t.Fatalf("header = %q, want %q", lines[0], wantHeader)
	}

	wantRow := "genie,100,Song A,Artist A,2025-01-01 10:00:00,2025-01-01 10:10:00," +
		"100,120,20,10,12,2,2,0.2,2,0"
	if lines[1] != wantRow {
		t.Fatalf("row = %q, want %q", lines[1], wantRow)
	}

	if _, err := os.Stat(filepath.Join(outDir, "csv", "spotify_summary.csv")); err != nil {
		t.Fatalf("expected spotify csv: %v", err)
	}
}

func TestWriteSummaryCSVAbsentValuesAreEmptyCells(t *testing.T) {
	outDir := t.TempDir()
	_, summaries := buildResults(
		seriesPoint("genie", "100", 0, map[string]float64{"total_listeners": 10}),
		seriesPoint("genie", "100", 10, map[string]float64{"total_plays": 120, "total_listeners": 12}),
	)

	writer := report.NewWriter(logging.NewNop(), outDir, nil)
	if _, err := writer.WriteSummaryCSV(summaries); err != nil {
		t.Fatalf("WriteSummaryCSV returned error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(outDir, "csv", "genie_summary.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
	fields := strings.Split(lines[1], ",")

	// first_total_plays, net_total_plays, and the plays rate must be empty,
	// never zero-filled.
	if fields[6] != "" {
		t.Fatalf("first_total_plays = %q, want empty", fields[6])
	}
	if fields[7] != "120" {
		t.Fatalf("last_total_plays = %q, want 120", fields[7])
	}
	if fields[8] != "" {
		t.Fatalf("net_total_plays = %q, want empty", fields[8])
	}
	if fields[12] != "" {
		t.Fatalf("avg_rate_total_plays_per_min = %q, want empty", fields[12])
	}
}

func TestWriteSummaryCSVEmptyResult(t *testing.T) {
	writer := report.NewWriter(logging.NewNop(), t.TempDir(), nil)
	files, err := writer.WriteSummaryCSV(&summary.Result{})
	if err != nil {
		t.Fatalf("WriteSummaryCSV returned error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %v, want none", files)
	}
}

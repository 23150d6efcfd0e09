package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"tempo/internal/series"
	"tempo/internal/summary"
)

// csvTimestampLayout is the timestamp format used in summary CSV cells.
const csvTimestampLayout = "2006-01-02 15:04:05"

// utf8BOM prefixes every CSV so spreadsheet applications detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteSummaryCSV writes one summary CSV per source under <outdir>/csv and
// returns the written paths.
func (w *Writer) WriteSummaryCSV(result *summary.Result) ([]string, error) {
	if len(result.Summaries) == 0 {
		return nil, nil
	}

	dir := filepath.Join(w.outDir, "csv")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure csv directory: %w", err)
	}

	bySource := make(map[string][]series.Summary)
	var sources []string
	for _, s := range result.Summaries {
		if _, ok := bySource[s.Source]; !ok {
			sources = append(sources, s.Source)
		}
		bySource[s.Source] = append(bySource[s.Source], s)
	}
	sort.Strings(sources)

	var written []string
	for _, source := range sources {
		path := filepath.Join(dir, fileToken(source)+"_summary.csv")
		if err := w.writeSourceCSV(path, bySource[source]); err != nil {
			return written, err
		}
		w.logger.Debug("summary csv written",
			slog.String("source", source),
			slog.String("path", path),
			slog.Int("rows", len(bySource[source])))
		written = append(written, path)
	}
	return written, nil
}

func (w *Writer) writeSourceCSV(path string, summaries []series.Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(w.csvHeader()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range summaries {
		if err := cw.Write(w.csvRow(s)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush summary csv: %w", err)
	}
	return file.Close()
}

func (w *Writer) csvHeader() []string {
	header := []string{"source", "item_id", "item_name", "artist_name", "first_timestamp", "last_timestamp"}
	for _, counter := range w.counters {
		header = append(header, series.FirstField(counter), series.LastField(counter), series.NetField(counter))
	}
	for _, counter := range w.counters {
		header = append(header, series.AvgRateField(counter))
	}
	return append(header, "num_points", "num_anomalies_negative_diff")
}

func (w *Writer) csvRow(s series.Summary) []string {
	row := []string{
		s.Source,
		s.ItemID,
		s.ItemName,
		s.ArtistName,
		formatCSVTimestamp(s.FirstTimestamp),
		formatCSVTimestamp(s.LastTimestamp),
	}
	for _, counter := range w.counters {
		row = append(row,
			formatOptionalFloat(s.First, counter),
			formatOptionalFloat(s.Last, counter),
			formatOptionalFloat(s.Net, counter))
	}
	for _, counter := range w.counters {
		row = append(row, formatOptionalFloat(s.AvgRate, counter))
	}
	return append(row, strconv.Itoa(s.NumPoints), strconv.Itoa(s.NumAnomalies))
}

func formatCSVTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(csvTimestampLayout)
}

// formatOptionalFloat renders a counter value, or an empty cell when the
// value is absent. Absent and zero stay distinguishable in the output.
func formatOptionalFloat(values map[string]float64, key string) string {
	value, ok := values[key]
	if !ok {
		return ""
	}
	return formatFloat(value)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package store

import (
	"context"
	"fmt"
	"strings"

	"tempo/internal/series"
)

// exportTimestampLayout matches the rendered CSV timestamps so exported
// rows sort and join cleanly.
const exportTimestampLayout = "2006-01-02 15:04:05"

// Dataset is a rendered dataset ready for export.
type Dataset struct {
	Counters  []string
	Points    []series.MetricPoint
	Summaries []series.Summary
}

// ExportDataset replaces the points, metrics, and summaries tables with the
// dataset's rows. Counter columns are generated from the dataset's counter
// list; absent values are stored as NULL, never zero.
func (s *Store) ExportDataset(ctx context.Context, ds Dataset) error {
	counters := ds.Counters
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DROP TABLE IF EXISTS points`,
		`DROP TABLE IF EXISTS metrics`,
		`DROP TABLE IF EXISTS summaries`,
		pointsDDL(counters),
		metricsDDL(counters),
		summariesDDL(counters),
		`CREATE INDEX idx_points_key ON points(source, item_id, timestamp)`,
		`CREATE INDEX idx_metrics_key ON metrics(source, item_id, timestamp)`,
		`CREATE INDEX idx_summaries_key ON summaries(source, item_id)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare export tables: %w", err)
		}
	}

	pointInsert, err := tx.PrepareContext(ctx, insertSQL("points", pointColumns(counters)))
	if err != nil {
		return fmt.Errorf("prepare points insert: %w", err)
	}
	defer pointInsert.Close()
	metricInsert, err := tx.PrepareContext(ctx, insertSQL("metrics", metricColumns(counters)))
	if err != nil {
		return fmt.Errorf("prepare metrics insert: %w", err)
	}
	defer metricInsert.Close()
	summaryInsert, err := tx.PrepareContext(ctx, insertSQL("summaries", summaryColumns(counters)))
	if err != nil {
		return fmt.Errorf("prepare summaries insert: %w", err)
	}
	defer summaryInsert.Close()

	for _, point := range ds.Points {
		if _, err := pointInsert.ExecContext(ctx, pointArgs(point, counters)...); err != nil {
			return fmt.Errorf("insert point: %w", err)
		}
		if _, err := metricInsert.ExecContext(ctx, metricArgs(point, counters)...); err != nil {
			return fmt.Errorf("insert metric: %w", err)
		}
	}
	for _, summary := range ds.Summaries {
		if _, err := summaryInsert.ExecContext(ctx, summaryArgs(summary, counters)...); err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func pointColumns(counters []string) []string {
	columns := []string{"source", "item_id", "item_name", "artist_name", "collection_name", "timestamp"}
	return append(columns, counters...)
}

func metricColumns(counters []string) []string {
	columns := []string{"source", "item_id", "timestamp", "delta_minutes"}
	for _, counter := range counters {
		columns = append(columns, series.DeltaField(counter))
	}
	for _, counter := range counters {
		columns = append(columns, series.RateField(counter))
	}
	return append(columns, "anomaly")
}

func summaryColumns(counters []string) []string {
	columns := []string{"source", "item_id", "item_name", "artist_name", "first_timestamp", "last_timestamp"}
	for _, counter := range counters {
		columns = append(columns,
			series.FirstField(counter),
			series.LastField(counter),
			series.NetField(counter))
	}
	for _, counter := range counters {
		columns = append(columns, series.AvgRateField(counter))
	}
	return append(columns, "num_points", "num_anomalies")
}

func pointsDDL(counters []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE points (\n")
	b.WriteString("    source TEXT NOT NULL,\n")
	b.WriteString("    item_id TEXT NOT NULL,\n")
	b.WriteString("    item_name TEXT,\n")
	b.WriteString("    artist_name TEXT,\n")
	b.WriteString("    collection_name TEXT,\n")
	b.WriteString("    timestamp TEXT NOT NULL")
	for _, counter := range counters {
		b.WriteString(",\n    " + quoteIdent(counter) + " REAL")
	}
	b.WriteString("\n)")
	return b.String()
}

func metricsDDL(counters []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE metrics (\n")
	b.WriteString("    source TEXT NOT NULL,\n")
	b.WriteString("    item_id TEXT NOT NULL,\n")
	b.WriteString("    timestamp TEXT NOT NULL,\n")
	b.WriteString("    delta_minutes REAL")
	for _, counter := range counters {
		b.WriteString(",\n    " + quoteIdent(series.DeltaField(counter)) + " REAL")
	}
	for _, counter := range counters {
		b.WriteString(",\n    " + quoteIdent(series.RateField(counter)) + " REAL")
	}
	b.WriteString(",\n    anomaly INTEGER NOT NULL DEFAULT 0")
	b.WriteString("\n)")
	return b.String()
}

func summariesDDL(counters []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE summaries (\n")
	b.WriteString("    source TEXT NOT NULL,\n")
	b.WriteString("    item_id TEXT NOT NULL,\n")
	b.WriteString("    item_name TEXT,\n")
	b.WriteString("    artist_name TEXT,\n")
	b.WriteString("    first_timestamp TEXT NOT NULL,\n")
	b.WriteString("    last_timestamp TEXT NOT NULL")
	for _, counter := range counters {
		b.WriteString(",\n    " + quoteIdent(series.FirstField(counter)) + " REAL")
		b.WriteString(",\n    " + quoteIdent(series.LastField(counter)) + " REAL")
		b.WriteString(",\n    " + quoteIdent(series.NetField(counter)) + " REAL")
	}
	for _, counter := range counters {
		b.WriteString(",\n    " + quoteIdent(series.AvgRateField(counter)) + " REAL")
	}
	b.WriteString(",\n    num_points INTEGER NOT NULL DEFAULT 0")
	b.WriteString(",\n    num_anomalies INTEGER NOT NULL DEFAULT 0")
	b.WriteString("\n)")
	return b.String()
}

func pointArgs(point series.MetricPoint, counters []string) []any {
	args := []any{
		point.Source,
		point.ItemID,
		nullableString(point.ItemName),
		nullableString(point.ArtistName),
		nullableString(point.CollectionName),
		point.Timestamp.Format(exportTimestampLayout),
	}
	for _, counter := range counters {
		args = append(args, nullableCounter(point.Counters, counter))
	}
	return args
}

func metricArgs(point series.MetricPoint, counters []string) []any {
	args := []any{
		point.Source,
		point.ItemID,
		point.Timestamp.Format(exportTimestampLayout),
		nullableFloatPtr(point.DeltaMinutes),
	}
	for _, counter := range counters {
		args = append(args, nullableCounter(point.Deltas, counter))
	}
	for _, counter := range counters {
		args = append(args, nullableCounter(point.Rates, counter))
	}
	return append(args, boolToInt(point.Anomaly))
}

func summaryArgs(summary series.Summary, counters []string) []any {
	args := []any{
		summary.Source,
		summary.ItemID,
		nullableString(summary.ItemName),
		nullableString(summary.ArtistName),
		summary.FirstTimestamp.Format(exportTimestampLayout),
		summary.LastTimestamp.Format(exportTimestampLayout),
	}
	for _, counter := range counters {
		args = append(args,
			nullableCounter(summary.First, counter),
			nullableCounter(summary.Last, counter),
			nullableCounter(summary.Net, counter))
	}
	for _, counter := range counters {
		args = append(args, nullableCounter(summary.AvgRate, counter))
	}
	return append(args, summary.NumPoints, summary.NumAnomalies)
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdent(column)
	}
	return "INSERT INTO " + table + " (" + strings.Join(quoted, ", ") + ") VALUES (" + makePlaceholders(len(columns)) + ")"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func nullableCounter(values map[string]float64, key string) any {
	if value, ok := values[key]; ok {
		return value
	}
	return nil
}

func nullableFloatPtr(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

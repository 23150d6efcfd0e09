package collect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tempo/internal/catalog"
	"tempo/internal/logging"
)

// SnapshotWriter appends scraped records to daily JSONL snapshot files in
// the shape the ingestion layer reads back.
type SnapshotWriter struct {
	dataDir  string
	location *time.Location
	logger   *slog.Logger
}

// NewSnapshotWriter builds a writer that stamps records in the given
// timezone and appends them under dataDir.
func NewSnapshotWriter(logger *slog.Logger, dataDir, timezone string) (*SnapshotWriter, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load collect timezone %q: %w", timezone, err)
	}
	return &SnapshotWriter{
		dataDir:  dataDir,
		location: location,
		logger:   logging.NewComponentLogger(logger, "snapshot"),
	}, nil
}

// FileFor returns the snapshot file that holds records for the source at
// the given instant. The date in the name follows the writer's timezone.
func (w *SnapshotWriter) FileFor(source string, now time.Time) string {
	local := now.In(w.location)
	name := fmt.Sprintf("%s_%s.jsonl", local.Format("2006-01-02"), strings.ToUpper(source))
	return filepath.Join(w.dataDir, name)
}

// Record builds one ingestion-shaped record for an item. A nil snapshot
// with a scrape error yields a record carrying the error and no counters,
// which keeps the observation visible without inventing zero values.
func (w *SnapshotWriter) Record(source string, item catalog.Item, snap *Snapshot, scrapeErr error, now time.Time) map[string]any {
	local := now.In(w.location)
	record := map[string]any{
		"source":  source,
		"item_id": item.ID,
		"date":    local.Format("2006-01-02"),
		"hour":    local.Hour(),
		"minute":  local.Minute(),
	}
	name := item.Name
	if snap != nil {
		if snap.ItemName != "" {
			name = snap.ItemName
		}
		if snap.ArtistName != "" {
			record["artist_name"] = snap.ArtistName
		}
		if snap.CollectionName != "" {
			record["collection_name"] = snap.CollectionName
		}
		for counter, value := range snap.Counters {
			record[counter] = value
		}
	}
	if name != "" {
		record["item_name"] = name
	}
	if scrapeErr != nil {
		record["error"] = scrapeErr.Error()
	}
	return record
}

// Append writes the records for one source to its daily snapshot file and
// returns the file's path.
func (w *SnapshotWriter) Append(source string, now time.Time, records []map[string]any) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(w.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	path := w.FileFor(source, now)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return "", fmt.Errorf("write snapshot record: %w", err)
		}
	}
	w.logger.Debug("appended snapshot records",
		slog.String(logging.FieldSource, source),
		slog.Int("records", len(records)),
		slog.String("file", path))
	return path, nil
}

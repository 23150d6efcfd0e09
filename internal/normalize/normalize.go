package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"tempo/internal/logging"
	"tempo/internal/series"
)

// TimestampLayout is the canonical layout of assembled point timestamps.
// Timestamps are naive: parsed in UTC and compared as-is.
const TimestampLayout = "2006-01-02 15:04"

// invalidKeyMarker stands in for the timestamp inside dedup keys when the
// timestamp failed to parse, so invalid records of one item collide with
// each other instead of surviving as distinct points.
const invalidKeyMarker = "invalid"

// Result carries the normalized series and the bookkeeping counts callers
// report to operators.
type Result struct {
	Points []series.Point
	// RecordsIn is the number of raw records considered.
	RecordsIn int
	// DuplicatesDropped counts records discarded because a later record
	// shared their (source, item_id, timestamp) key.
	DuplicatesDropped int
	// InvalidTimestamps counts records dropped after deduplication
	// because their timestamp could not be parsed.
	InvalidTimestamps int
}

// Normalizer coerces and orders raw snapshot records.
type Normalizer struct {
	counters []string
	logger   *slog.Logger
}

// New returns a Normalizer that extracts the given counter fields. An empty
// counter list falls back to series.DefaultCounters.
func New(logger *slog.Logger, counters []string) *Normalizer {
	if len(counters) == 0 {
		counters = series.DefaultCounters
	}
	return &Normalizer{
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "normalize"),
	}
}

type candidate struct {
	point series.Point
	valid bool
}

// Normalize coerces records, deduplicates them last-wins, drops points with
// unparsable timestamps, and returns the series sorted by source, item, and
// timestamp. Empty input yields an empty result.
func (n *Normalizer) Normalize(records []series.Raw) *Result {
	result := &Result{RecordsIn: len(records)}
	if len(records) == 0 {
		return result
	}

	kept := make([]candidate, 0, len(records))
	slot := make(map[string]int, len(records))
	for _, record := range records {
		cand := n.coerce(record)
		key := dedupKey(cand)
		if at, ok := slot[key]; ok {
			kept[at] = cand
			result.DuplicatesDropped++
			continue
		}
		slot[key] = len(kept)
		kept = append(kept, cand)
	}

	points := make([]series.Point, 0, len(kept))
	for _, cand := range kept {
		if !cand.valid {
			result.InvalidTimestamps++
			continue
		}
		points = append(points, cand.point)
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Source != points[j].Source {
			return points[i].Source < points[j].Source
		}
		if points[i].ItemID != points[j].ItemID {
			return points[i].ItemID < points[j].ItemID
		}
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	result.Points = points

	if result.DuplicatesDropped > 0 {
		n.logger.Info("deduplicated records", slog.Int("dropped", result.DuplicatesDropped))
	}
	if result.InvalidTimestamps > 0 {
		n.logger.Warn("dropped records with unparsable timestamps", slog.Int("dropped", result.InvalidTimestamps))
	}
	n.logger.Debug("normalize complete",
		slog.Int("records_in", result.RecordsIn),
		slog.Int("points_out", len(result.Points)))
	return result
}

func (n *Normalizer) coerce(record series.Raw) candidate {
	fields := record.Fields

	point := series.Point{
		Source:         stringField(fields, "source"),
		ItemID:         stringField(fields, "item_id"),
		ItemName:       stringField(fields, "item_name"),
		ArtistName:     stringField(fields, "artist_name"),
		CollectionName: stringField(fields, "collection_name"),
		Counters:       make(map[string]float64, len(n.counters)),
	}

	for _, counter := range n.counters {
		if value, ok := numberField(fields, counter); ok {
			point.Counters[counter] = value
		}
	}

	raw := fmt.Sprintf("%s %02d:%02d",
		stringField(fields, "date"),
		intField(fields, "hour"),
		intField(fields, "minute"))
	ts, err := time.Parse(TimestampLayout, raw)
	if err != nil {
		return candidate{point: point, valid: false}
	}
	point.Timestamp = ts
	return candidate{point: point, valid: true}
}

func dedupKey(cand candidate) string {
	ts := invalidKeyMarker
	if cand.valid {
		ts = cand.point.Timestamp.Format(TimestampLayout)
	}
	return cand.point.Source + "\x1f" + cand.point.ItemID + "\x1f" + ts
}

// stringField reads a field as a string. JSON numbers render without a
// trailing ".0" so an item_id of 123 matches the string "123".
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// intField reads a field as an integer, defaulting to zero when the value
// is missing or unparsable. Fractional values truncate.
func intField(fields map[string]any, key string) int {
	value, ok := numberField(fields, key)
	if !ok {
		return 0
	}
	return int(value)
}

// numberField reads a field as a float64, reporting absence when the value
// is missing, non-numeric, NaN, or infinite.
func numberField(fields map[string]any, key string) (float64, bool) {
	var value float64
	switch v := fields[key].(type) {
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

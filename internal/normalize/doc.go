// Package normalize turns raw snapshot records into a clean, ordered point
// series.
//
// Each raw record is coerced field by field: identifiers become strings,
// hour and minute fall back to zero when missing or unparsable, and counter
// values that cannot be read as numbers are treated as absent rather than
// zero. A point's timestamp is assembled from its date, hour, and minute
// fields; records whose timestamp cannot be parsed survive deduplication
// (they collide with one another per item) and are dropped afterwards so
// the reported counts stay stable.
//
// Deduplication is last-wins on (source, item_id, timestamp): when several
// records share a key, the one latest in input order is kept. The final
// series is sorted by source, item, and timestamp, which downstream metric
// computation relies on.
package normalize

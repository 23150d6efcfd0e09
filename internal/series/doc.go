// Package series defines the data model shared by the snapshot pipeline:
// raw records as read from storage, canonical points, metric-annotated
// points, and per-item summaries.
//
// Counters, deltas, and rates are presence-keyed maps: a missing key means
// the value was absent in the input or could not be derived, never zero.
// Keeping absence explicit is what makes the delta/rate guards and the
// "average of present rates only" summary semantics unambiguous.
//
// Each pipeline stage returns fresh values and never mutates its input, so
// stages can be re-run and tested in isolation.
package series

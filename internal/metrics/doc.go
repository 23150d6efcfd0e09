// Package metrics derives per-point deltas and rates from a normalized
// series.
//
// Every counter delta is a first difference against the previous point of
// the same (source, item) group, so each group's first point carries no
// deltas. A delta is present only when the counter is present on both
// sides; rates additionally require a positive time gap. Negative deltas
// mark the point as anomalous but are never corrected or removed.
package metrics

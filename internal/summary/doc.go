// Package summary aggregates a derived series into one row per
// (source, item) group plus per-source totals.
//
// Boundary values are taken positionally: the first and last points of a
// group supply the first/last counter values, and a net change exists only
// when both endpoints carry the counter. Average rates consider only the
// rates that are present; a group with no usable rates reports none rather
// than zero.
package summary

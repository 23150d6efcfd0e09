// Package report writes the rendered artifacts: per-source summary CSVs,
// per-item and per-source SVG charts, and per-item HTML reports.
package report

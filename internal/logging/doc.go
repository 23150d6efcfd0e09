// Package logging assembles the structured slog loggers used across tempo
// commands and services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes small helpers so pipeline code can tag log lines
// with component names, run IDs, and source identifiers without repeating
// setup. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging

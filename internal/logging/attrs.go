package logging

import (
	"context"
	"log/slog"
)

// Standardized structured logging keys shared by the pipeline and daemon.
const (
	// FieldComponent names the subsystem emitting the record. Console
	// output promotes it into the line prefix.
	FieldComponent = "component"
	// FieldRunID carries the collection run identifier.
	FieldRunID = "run_id"
	// FieldSource carries the data source identifier (e.g. "genie").
	FieldSource = "source"
	// FieldItemID carries the per-source item identifier.
	FieldItemID = "item_id"
)

// Error wraps an error for structured logging under the "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component
// attribute. If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }

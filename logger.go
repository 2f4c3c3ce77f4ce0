package segmend

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with segmend-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSegment adds a segment field to the logger.
func (l *Logger) WithSegment(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", name),
	}
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(column string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", column),
	}
}

// LogAction logs the outcome of one column action.
func (l *Logger) LogAction(ctx context.Context, column string, action Action, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "default column action failed",
			"column", column,
			"action", action.String(),
			"error", err,
		)
	case action.IsNoOp():
		l.DebugContext(ctx, "default column unchanged",
			"column", column,
		)
	default:
		l.InfoContext(ctx, "default column action completed",
			"column", column,
			"action", action.String(),
		)
	}
}

// LogSkipped logs a column that was not started.
func (l *Logger) LogSkipped(ctx context.Context, column string, action Action) {
	l.WarnContext(ctx, "default column action skipped",
		"column", column,
		"action", action.String(),
	)
}

// LogDrift logs a real data column whose definition disagrees with the
// schema. Such columns are never rewritten.
func (l *Logger) LogDrift(ctx context.Context, column, reason string) {
	l.WarnContext(ctx, "data column differs from schema, leaving it unchanged",
		"column", column,
		"reason", reason,
	)
}

// LogPass logs a finished pass.
func (l *Logger) LogPass(ctx context.Context, report *Report) {
	changed := len(report.Changed())
	if failed := report.Failed(); failed > 0 || report.Skipped() > 0 {
		l.WarnContext(ctx, "reconciliation pass completed with failures",
			"columns", len(report.Results),
			"changed", changed,
			"failed", failed,
			"skipped", report.Skipped(),
			"duration", report.Duration,
		)
		return
	}
	l.InfoContext(ctx, "reconciliation pass completed",
		"columns", len(report.Results),
		"changed", changed,
		"duration", report.Duration,
	)
}

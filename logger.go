package studyset

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with studyset-specific context.
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
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithStudy adds a study field to the logger.
func (l *Logger) WithStudy(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("study", id),
	}
}

// LogLoad logs a load of a structured file or snapshot.
func (l *Logger) LogLoad(ctx context.Context, path string, studies int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dataset loaded",
			"path", path,
			"studies", studies,
			"elapsed", elapsed,
		)
	}
}

// LogSnapshot logs a snapshot save.
func (l *Logger) LogSnapshot(ctx context.Context, path string, studies int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"path", path,
			"studies", studies,
		)
	}
}

// LogSelect logs a selection.
func (l *Logger) LogSelect(ctx context.Context, requirement string, matched int, err error) {
	if err != nil {
		l.WarnContext(ctx, "select failed",
			"requirement", requirement,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "select completed",
			"requirement", requirement,
			"matched", matched,
		)
	}
}

// LogMutation logs an add or remove.
func (l *Logger) LogMutation(ctx context.Context, op string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, op+" completed",
			"count", count,
		)
	}
}

// LogVerify logs an image verification pass.
func (l *Logger) LogVerify(ctx context.Context, checked, missing int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "image verification failed",
			"checked", checked,
			"error", err,
		)
	case missing > 0:
		l.WarnContext(ctx, "image verification found missing images",
			"checked", checked,
			"missing", missing,
		)
	default:
		l.InfoContext(ctx, "image verification completed",
			"checked", checked,
		)
	}
}

package dynvec

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with dynvec-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithName adds a name field to the logger, useful to tell several arrays
// apart in one log stream.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("array", name),
	}
}

// LogReallocation logs a block replacement.
func (l *Logger) LogReallocation(op string, oldCap, newCap, length int, strategy Strategy) {
	l.Debug("block reallocated",
		"op", op,
		"old_cap", oldCap,
		"new_cap", newCap,
		"len", length,
		"strategy", strategy.String(),
	)
}

// LogRollback logs a mutator that failed and restored the previous state.
func (l *Logger) LogRollback(op string, length, capacity int, err error) {
	l.Warn("operation rolled back",
		"op", op,
		"len", length,
		"cap", capacity,
		"error", err,
	)
}

// LogFailure logs a mutator with the basic guarantee that failed and left
// the array valid but modified.
func (l *Logger) LogFailure(op string, length, capacity int, err error) {
	l.Warn("operation failed, array modified",
		"op", op,
		"len", length,
		"cap", capacity,
		"error", err,
	)
}

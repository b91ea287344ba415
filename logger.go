package embedstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with embedstore-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs the result of loading embeddings from source.
func (l *Logger) LogLoad(ctx context.Context, source string, e *Embeddings, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"source", source,
			"error", err,
		)
		return
	}
	rows, dims := e.Shape()
	l.WithCount(e.Len()).WithDimension(dims).InfoContext(ctx, "embeddings loaded",
		"source", source,
		"rows", rows,
		"storage", storageKind(e.storage),
	)
}

// LogWrite logs the result of writing embeddings to dest.
func (l *Logger) LogWrite(ctx context.Context, dest string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"dest", dest,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "embeddings written",
			"dest", dest,
			"bytes", bytes,
		)
	}
}

// LogQuery logs a similarity or analogy query.
func (l *Logger) LogQuery(ctx context.Context, kind QueryKind, k, resultsFound int, err error) {
	ql := l.WithK(k)
	if err != nil {
		ql.DebugContext(ctx, "query failed",
			"kind", kind.String(),
			"error", err,
		)
	} else {
		ql.WithCount(resultsFound).DebugContext(ctx, "query completed",
			"kind", kind.String(),
		)
	}
}

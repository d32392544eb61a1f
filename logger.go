package cepgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger wraps slog.Logger with cepgo-specific context.
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

// NewConsoleLogger creates a Logger for interactive use: colored output on
// a terminal, plain text otherwise.
func NewConsoleLogger(level slog.Level) *Logger {
	handler := tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
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

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// WithLabel adds a label field to the logger.
func (l *Logger) WithLabel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", name),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, outputs int, err error) {
	if err != nil {
		l.DebugContext(ctx, "insert failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"outputs", outputs,
		)
	}
}

// LogDelete logs a delete operation. Deleting a row that is not in the
// table is not an error.
func (l *Logger) LogDelete(ctx context.Context, removed bool, outputs int) {
	l.DebugContext(ctx, "delete completed",
		"removed", removed,
		"outputs", outputs,
	)
}

// LogReject logs an insert refused by a unique index.
func (l *Logger) LogReject(ctx context.Context, index string) {
	l.WarnContext(ctx, "row rejected",
		"index", index,
	)
}

// LogRecompute logs an aggregator recomputation.
func (l *Logger) LogRecompute(ctx context.Context, index string, outputs int) {
	l.InfoContext(ctx, "recompute completed",
		"index", index,
		"outputs", outputs,
	)
}

// LogCopy logs a bulk copy between tables.
func (l *Logger) LogCopy(ctx context.Context, source string, rows int, err error) {
	if err != nil {
		l.WarnContext(ctx, "copy completed with rejections",
			"source", source,
			"rows", rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "copy completed",
			"source", source,
			"rows", rows,
		)
	}
}

// LogConsume logs the end of a queue consumer.
func (l *Logger) LogConsume(ctx context.Context, queue string, trays int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "consumer stopped",
			"queue", queue,
			"trays", trays,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "consumer drained",
			"queue", queue,
			"trays", trays,
		)
	}
}

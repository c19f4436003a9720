package minsketch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/minsketch/group"
)

// Logger wraps slog.Logger with sketching-specific context.
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

// WithShard adds the output shard name to the logger.
func (l *Logger) WithShard(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("shard", name),
	}
}

// WithNumPerm adds the signature length to the logger.
func (l *Logger) WithNumPerm(numPerm int) *Logger {
	return &Logger{
		Logger: l.Logger.With("num_perm", numPerm),
	}
}

// LogDocument logs a single sketched document.
func (l *Logger) LogDocument(ctx context.Context, id string, tokens int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sketch failed",
			"id", id,
			"tokens", tokens,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sketch written",
			"id", id,
			"tokens", tokens,
		)
	}
}

// LogProgress logs the running document count.
func (l *Logger) LogProgress(ctx context.Context, documents int, elapsed time.Duration) {
	l.InfoContext(ctx, "sketching progress",
		"documents", documents,
		"elapsed", elapsed,
	)
}

// LogAnomaly logs a merge that did not grow a pending token set.
func (l *Logger) LogAnomaly(ctx context.Context, a group.Anomaly, policy group.AnomalyPolicy) {
	l.WarnContext(ctx, "merge did not grow token set",
		"key", int64(a.Key),
		"before", a.Before,
		"incoming", a.Incoming,
		"after", a.After,
		"policy", policy.String(),
	)
}

// LogComplete logs the summary of a finished run.
func (l *Logger) LogComplete(ctx context.Context, stats Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sketching failed",
			"documents", stats.Documents,
			"written", stats.Written,
			"skipped", stats.Skipped,
			"anomalies", stats.Anomalies,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "sketching complete",
		"entries", stats.Entries,
		"documents", stats.Documents,
		"written", stats.Written,
		"skipped", stats.Skipped,
		"anomalies", stats.Anomalies,
		"duration", stats.Duration,
	)
}

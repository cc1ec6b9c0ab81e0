// Package observability provides logging, metrics and tracing for metadata
// passes:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// EnrichLogger adds pass context to a logger.
// Returns a new logger with pass_id and mode fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "pass-123", "live")
//	enriched.Warn("positive prompt is empty") // includes pass_id, mode
func EnrichLogger(logger *slog.Logger, passID, mode string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("pass_id", passID),
		slog.String("mode", mode),
	)
}

// LogPassStart logs the start of a metadata pass.
func LogPassStart(logger *slog.Logger, passID string) {
	if logger == nil {
		return
	}
	logger.Debug("metadata pass starting",
		slog.String("pass_id", passID),
	)
}

// LogPassComplete logs a pass that produced a record.
func LogPassComplete(logger *slog.Logger, passID string, durationMs float64, keys int) {
	if logger == nil {
		return
	}
	logger.Info("metadata pass completed",
		slog.String("pass_id", passID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("keys", keys),
	)
}

// LogPassSkipped logs a pass whose record was discarded.
func LogPassSkipped(logger *slog.Logger, passID, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("metadata pass skipped, no metadata will be attached",
		slog.String("pass_id", passID),
		slog.String("reason", reason),
	)
}

// LogConflict logs two candidates that disagree on a single-value field.
// The first value wins.
func LogConflict(logger *slog.Logger, field meta.Field, keptNode, node string, kept, value any) {
	if logger == nil {
		return
	}
	logger.Warn("conflicting input values",
		slog.String("field", field.String()),
		slog.String("kept_node", keptNode),
		slog.String("kept", meta.Format(kept)),
		slog.String("node_id", node),
		slog.String("value", meta.Format(value)),
	)
}

// LogBlankPositive logs a record whose positive prompt ended up empty.
func LogBlankPositive(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Warn("positive prompt is empty")
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

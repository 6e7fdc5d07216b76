// Package observability provides production-grade observability features
// for dispatchkit: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds dispatchkit context to a logger.
// Returns a new logger with runtime_id and topic fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "rt-a1b2c3d4", "main.BuyEvent")
//	enriched.Info("doing work") // includes runtime_id, topic
func EnrichLogger(logger *slog.Logger, runtimeID, topic string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("runtime_id", runtimeID),
		slog.String("topic", topic),
	)
}

// LogDispatch logs a completed message dispatch.
func LogDispatch(logger *slog.Logger, runtimeID, topic string, delivered, failed int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("runtime_id", runtimeID),
		slog.String("topic", topic),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDeferred logs a request queued behind an in-progress dispatch.
func LogDeferred(logger *slog.Logger, runtimeID, op string, depth int) {
	if logger == nil {
		return
	}
	logger.Debug("operation deferred",
		slog.String("runtime_id", runtimeID),
		slog.String("operation", op),
		slog.Int("queue_depth", depth),
	)
}

// LogQueueDepth warns about an unusually deep deferred queue.
func LogQueueDepth(logger *slog.Logger, runtimeID string, depth int) {
	if logger == nil {
		return
	}
	logger.Warn("deferred queue depth high",
		slog.String("runtime_id", runtimeID),
		slog.Int("queue_depth", depth),
	)
}

// LogIncident logs a recoverable incident (non-fatal).
func LogIncident(logger *slog.Logger, runtimeID, kind, activity, topic string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("incident recorded",
		slog.String("runtime_id", runtimeID),
		slog.String("kind", kind),
		slog.String("activity", activity),
		slog.String("topic", topic),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000.0
	}
}

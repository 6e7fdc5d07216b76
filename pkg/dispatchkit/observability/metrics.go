package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records dispatchkit metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a completed message dispatch with its handler
	// count, duration and failure count.
	RecordDispatch(ctx context.Context, topic string, handlers int, durationMs float64, failures int)

	// RecordQueueDepth records the deferred queue depth after an enqueue.
	RecordQueueDepth(ctx context.Context, depth int)

	// RecordIncident records a recoverable incident by kind.
	RecordIncident(ctx context.Context, kind string)

	// RecordLifecycle records an activity lifecycle transition.
	RecordLifecycle(ctx context.Context, status string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	handlerFailures metric.Int64Counter
	queueDepth      metric.Int64Histogram
	incidents       metric.Int64Counter
	lifecycle       metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("dispatchkit")

	dispatches, err := meter.Int64Counter("dispatchkit.dispatch.count",
		metric.WithDescription("Number of message dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("dispatchkit.dispatch.latency_ms",
		metric.WithDescription("Message dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerFailures, err := meter.Int64Counter("dispatchkit.handler.failures",
		metric.WithDescription("Number of subscriber panics recovered during dispatch"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Histogram("dispatchkit.queue.depth",
		metric.WithDescription("Deferred queue depth observed at enqueue"),
	)
	if err != nil {
		return nil, err
	}

	incidents, err := meter.Int64Counter("dispatchkit.incidents",
		metric.WithDescription("Number of recoverable incidents"),
	)
	if err != nil {
		return nil, err
	}

	lifecycle, err := meter.Int64Counter("dispatchkit.activity.transitions",
		metric.WithDescription("Number of activity lifecycle transitions"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		handlerFailures: handlerFailures,
		queueDepth:      queueDepth,
		incidents:       incidents,
		lifecycle:       lifecycle,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a completed message dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, topic string, handlers int, durationMs float64, failures int) {
	attrs := []attribute.KeyValue{
		attribute.String("topic", topic),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, durationMs, metric.WithAttributes(attrs...))

	if failures > 0 {
		m.handlerFailures.Add(ctx, int64(failures), metric.WithAttributes(attrs...))
	}
}

// RecordQueueDepth records the deferred queue depth.
func (m *otelMetrics) RecordQueueDepth(ctx context.Context, depth int) {
	m.queueDepth.Record(ctx, int64(depth))
}

// RecordIncident records a recoverable incident.
func (m *otelMetrics) RecordIncident(ctx context.Context, kind string) {
	m.incidents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordLifecycle records an activity lifecycle transition.
func (m *otelMetrics) RecordLifecycle(ctx context.Context, status string) {
	m.lifecycle.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

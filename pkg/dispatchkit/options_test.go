package dispatchkit

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/config"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/journal"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/observability"
)

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := New(WithLogger(logger))

	a := NewActivity(rt, &counterState{})
	require.NoError(t, Subscribe(rt, a, func(c *counterState, _ pingEvent) { c.hits++ }))
	Publish(rt, pingEvent{})

	assert.Contains(t, buf.String(), "dispatch completed")
	assert.Contains(t, buf.String(), rt.ID())
}

func TestWithQueueWarnDepth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rt := New(WithLogger(logger), WithQueueWarnDepth(2))

	a := NewActivity(rt, &counterState{})
	require.NoError(t, Subscribe(rt, a, func(*counterState, pingEvent) {
		// Four deferred publishes push the queue past the threshold.
		Publish(rt, noteEvent{})
		Publish(rt, noteEvent{})
		Publish(rt, noteEvent{})
		Publish(rt, noteEvent{})
	}))

	Publish(rt, pingEvent{})

	assert.Contains(t, buf.String(), "deferred queue depth high")
}

func TestWithNilOptionsAreIgnored(t *testing.T) {
	rt := New(
		WithMetrics(nil),
		WithSpans(nil),
		WithContext(nil),
	)

	// Still dispatches with the no-op defaults.
	a := NewActivity(rt, &counterState{})
	require.NoError(t, Subscribe(rt, a, func(c *counterState, _ pingEvent) { c.hits++ }))
	Publish(rt, pingEvent{})
	assert.Equal(t, 1, readHits(t, rt, a))
}

func TestFromConfig(t *testing.T) {
	t.Run("zero config yields no options", func(t *testing.T) {
		opts, err := FromConfig(config.Config{})
		require.NoError(t, err)
		assert.Empty(t, opts)
	})

	t.Run("full config", func(t *testing.T) {
		opts, err := FromConfig(config.Config{
			LogLevel:       "debug",
			Metrics:        true,
			Tracing:        true,
			Diagnostics:    true,
			QueueCapacity:  32,
			QueueWarnDepth: 100,
		})
		require.NoError(t, err)
		assert.Len(t, opts, 6)

		rt := New(opts...)
		assert.NotNil(t, rt.logger)
		assert.NotNil(t, rt.journal)
		assert.Equal(t, 100, rt.queueWarnLen)
		assert.Equal(t, 32, cap(rt.queue))
	})

	t.Run("in-memory journal by default", func(t *testing.T) {
		opts, err := FromConfig(config.Config{Diagnostics: true})
		require.NoError(t, err)

		rt := New(opts...)
		_, ok := rt.journal.(*journal.MemoryStore)
		assert.True(t, ok)
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		_, err := FromConfig(config.Config{QueueCapacity: -1})
		assert.Error(t, err)
	})

	t.Run("unknown log level rejected", func(t *testing.T) {
		_, err := FromConfig(config.Config{LogLevel: "loud"})
		assert.Error(t, err)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithMetricsAndSpans(t *testing.T) {
	rt := New(
		WithMetrics(observability.NoopMetrics{}),
		WithSpans(observability.NoopSpanManager{}),
	)

	a := NewActivity(rt, &counterState{})
	require.NoError(t, Subscribe(rt, a, func(c *counterState, _ pingEvent) { c.hits++ }))
	Publish(rt, pingEvent{})
	assert.Equal(t, 1, readHits(t, rt, a))
}

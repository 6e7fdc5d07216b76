package dispatchkit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/config"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/journal"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/observability"
)

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithLogger enables structured logging through the given slog logger.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithMetrics enables metrics recording. Use
// observability.NewMetricsRecorder() for OpenTelemetry metrics.
// Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(rt *Runtime) {
		if m != nil {
			rt.metrics = m
		}
	}
}

// WithSpans enables tracing of top-level dispatch rounds. Use
// observability.NewSpanManager() for OpenTelemetry spans.
// Default: no-op.
func WithSpans(s observability.SpanManager) Option {
	return func(rt *Runtime) {
		if s != nil {
			rt.spans = s
		}
	}
}

// WithJournal enables the diagnostics journal. Recovered handler panics,
// unmatched private sends and stale-handle rejections on deferred
// operations are appended as incident records.
// Default: no journal.
func WithJournal(store journal.Store) Option {
	return func(rt *Runtime) {
		rt.journal = store
	}
}

// WithContext sets the base context used for metric and span recording.
// Default: context.Background().
func WithContext(ctx context.Context) Option {
	return func(rt *Runtime) {
		if ctx != nil {
			rt.ctx = ctx
		}
	}
}

// WithOnError registers a hook invoked for every recoverable incident that
// has no caller to return to (errors on deferred operations, recovered
// handler panics).
func WithOnError(fn func(error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

// WithQueueCapacity pre-allocates the deferred operation queue.
// Default: 0 (grow on demand).
func WithQueueCapacity(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.queue = make([]deferredOp, 0, n)
		}
	}
}

// WithQueueWarnDepth logs a warning (once per drain) when the deferred
// queue grows beyond n entries, which usually indicates a feedback loop
// between handlers.
// Default: 0 (disabled).
func WithQueueWarnDepth(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.queueWarnLen = n
		}
	}
}

// FromConfig translates a loaded configuration into runtime options.
//
//	cfg, err := config.FromFile("dispatchkit.yaml")
//	if err != nil { ... }
//	opts, err := dispatchkit.FromConfig(cfg)
//	if err != nil { ... }
//	rt := dispatchkit.New(opts...)
func FromConfig(cfg config.Config) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []Option

	if cfg.LogLevel != "" {
		level, err := parseLogLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		opts = append(opts, WithLogger(logger))
	}

	if cfg.Metrics {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Tracing {
		opts = append(opts, WithSpans(observability.NewSpanManager()))
	}

	if cfg.Diagnostics {
		var store journal.Store
		if cfg.JournalPath == "" {
			store = journal.NewMemoryStore()
		} else {
			var err error
			store, err = journal.NewSQLiteStore(cfg.JournalPath)
			if err != nil {
				return nil, fmt.Errorf("open journal: %w", err)
			}
		}
		opts = append(opts, WithJournal(store))
	}

	if cfg.QueueCapacity > 0 {
		opts = append(opts, WithQueueCapacity(cfg.QueueCapacity))
	}
	if cfg.QueueWarnDepth > 0 {
		opts = append(opts, WithQueueWarnDepth(cfg.QueueWarnDepth))
	}

	return opts, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}

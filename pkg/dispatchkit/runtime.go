package dispatchkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/journal"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/observability"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/slots"
)

// Handle is an opaque, generation-checked reference to a registered
// activity. A handle obtained before the activity's deletion is detected as
// stale afterwards, even if the underlying slot has been reused.
type Handle = slots.Handle

// activityCell is the slot-table payload for one activity: its boxed state,
// lifecycle status, optional domain and optional deletion callback.
type activityCell struct {
	state    any // *A, boxed at registration
	status   Status
	domain   DomainID
	name     string // state type name, for diagnostics
	onDelete func(state any)
}

// Runtime is the process-scoped context object that owns the activity slot
// table, the subscription registry, the domain registry and the deferred
// operation queue.
//
// A Runtime is strictly single-threaded: it must only be touched from one
// goroutine (typically the application's event loop). All reentrancy safety
// comes from the deferral discipline, not from locks — any mutating request
// issued from inside a running handler is queued and applied breadth-first
// once the current dispatch returns to quiescence.
type Runtime struct {
	id string

	activities *slots.Table[activityCell]
	subs       map[topic][]*subscription
	nextSeq    uint64
	domains    []*domainState

	queue     []deferredOp
	executing bool

	ctx           context.Context
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	journal       journal.Store
	onError       func(error)
	queueWarnLen  int
	queueWarnOnce bool
}

// New creates an empty runtime. Options configure logging, metrics, tracing
// and the diagnostics journal; by default all of them are disabled.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		id:         "rt-" + uuid.New().String()[:8],
		activities: slots.New[activityCell](),
		subs:       make(map[topic][]*subscription),
		ctx:        context.Background(),
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// ID returns the runtime's unique instance identifier, as used in log and
// journal records.
func (rt *Runtime) ID() string {
	return rt.id
}

// ActivityCount returns the number of live (not deleted) activities.
func (rt *Runtime) ActivityCount() int {
	return rt.activities.Len()
}

// Status returns the lifecycle status for a handle. A stale handle reads as
// StatusDeleted.
func (rt *Runtime) Status(h Handle) Status {
	cell, ok := rt.activities.Get(h)
	if !ok {
		return StatusDeleted
	}
	return cell.status
}

// incident records a recoverable condition (recovered panic, unmatched
// private send, stale handle on a deferred operation) through every enabled
// diagnostics channel.
func (rt *Runtime) incident(kind journal.Kind, err error, activity, topicName string, domain DomainID) {
	observability.LogIncident(rt.logger, rt.id, string(kind), activity, topicName, err)
	rt.metrics.RecordIncident(rt.ctx, string(kind))
	if rt.journal != nil {
		rec := journal.NewRecord(rt.id, kind, err.Error())
		rec.Activity = activity
		rec.Topic = topicName
		rec.Domain = int(domain)
		if aerr := rt.journal.Append(rt.ctx, rec); aerr != nil && rt.logger != nil {
			rt.logger.Error("journal append failed",
				slog.String("runtime_id", rt.id),
				slog.String("error", aerr.Error()),
			)
		}
	}
	if rt.onError != nil {
		rt.onError(err)
	}
}

// typeName returns the printable name of A for diagnostics.
func typeName[A any]() string {
	return fmt.Sprintf("%T", (*A)(nil))[1:]
}

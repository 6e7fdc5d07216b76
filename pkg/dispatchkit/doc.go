/*
Package dispatchkit provides an in-process publish/subscribe runtime with
activity lifecycles for single-threaded event-loop applications.

# Overview

dispatchkit lets independently developed components (activities) exchange
typed messages without holding references to each other. Activities own
mutable state, subscribe to message types, and can share additional state
through domains. The runtime guarantees that no two handlers ever run
concurrently and that a dispatch in progress is never interleaved with
another: any mutating request issued from inside a handler is deferred and
applied in FIFO order once the current dispatch finishes.

There are no locks anywhere in the core. The runtime is strictly
single-threaded and must only be touched from one goroutine, typically the
application's event loop.

# Basic Usage

Register an activity, subscribe it to a message type, and publish:

	type ClickEvent struct{ X, Y int }

	type Counter struct {
	    Clicks int
	}

	func main() {
	    rt := dispatchkit.New()

	    counter := dispatchkit.NewActivity(rt, &Counter{})
	    dispatchkit.Subscribe(rt, counter, func(c *Counter, _ ClickEvent) {
	        c.Clicks++
	    })

	    dispatchkit.Publish(rt, ClickEvent{X: 10, Y: 20})
	}

The message's dynamic type selects the subscribers; subscribers run in
strict registration order.

# Lifecycle

Every activity starts Active. SetStatus moves it between Active, Inactive
and Deleted. Subscriptions registered with the default mask only fire while
the activity is Active; SubscribeMasked widens that. OnEnter and OnLeave
observe transitions into and out of Active, and OnDelete receives the
state back when the activity is deleted:

	dispatchkit.OnLeave(rt, counter, func(c *Counter) { c.flush() })
	dispatchkit.SetStatus(rt, counter.Handle(), dispatchkit.StatusInactive)
	dispatchkit.Delete(rt, counter.Handle())

Handles are generation-checked: a handle kept across deletion is detected
as stale even after its slot has been reused, and reports ErrStaleHandle.

# Domains

Activities registered in the same domain share typed state, stored once per
type and handed mutably to domain-bound subscriptions:

	type GameDomain struct{}

	func (GameDomain) DomainID() int { return 0 }

	type Board struct{ Cells []int }

	dispatchkit.StoreToDomain(rt, GameDomain{}, Board{Cells: make([]int, 64)})

	player := dispatchkit.NewDomainedActivity(rt, GameDomain{}, &Player{})
	dispatchkit.SubscribeDomained(rt, player, func(p *Player, b *Board, m MoveEvent) {
	    b.Cells[m.To] = p.ID
	})

Registering for a type never stored in the domain fails immediately with a
DomainTypeError rather than at first dispatch.

# Private Sends and Responses

SendTo delivers a message to a single activity's subscriptions only.
PublishAwait returns a Response future that resolves exactly once, after
every subscriber matched at dispatch time has completed, including any
work those subscribers deferred:

	resp := dispatchkit.PublishAwait(rt, SaveEvent{})
	if res, ok := resp.Poll(); ok && !res.Unfulfilled {
	    // all handlers ran
	}

# Error Handling

Operations that can fail return sentinel errors (ErrStaleHandle,
ErrNoSubscription, ErrNoDomain) or structured errors:

	var dterr *dispatchkit.DomainTypeError
	if errors.As(err, &dterr) {
	    log.Printf("domain %d never stored %s", dterr.Domain, dterr.Type)
	}

A panicking handler is recovered, wrapped in PanicError, and reported
through the diagnostics channels without aborting the rest of the
dispatch. Failures of deferred (reentrant) operations have no caller on
the stack; they are routed to the logger, metrics, the incident journal
and the WithOnError hook instead.

# Observability

Enable logging, metrics, tracing and the incident journal via options:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store, _ := journal.NewSQLiteStore("./incidents.db")

	rt := dispatchkit.New(
	    dispatchkit.WithLogger(logger),
	    dispatchkit.WithMetrics(observability.NewMetricsRecorder()),
	    dispatchkit.WithSpans(observability.NewSpanManager()),
	    dispatchkit.WithJournal(store),
	)

Or load everything from a file:

	cfg, err := config.FromFile("dispatchkit.yaml")
	opts, err := dispatchkit.FromConfig(cfg)
	rt := dispatchkit.New(opts...)

Logs include structured fields: runtime_id, topic, delivered, duration_ms.
OpenTelemetry metrics: dispatchkit.dispatch.count, dispatchkit.dispatch.latency_ms, etc.
OpenTelemetry tracing: one dispatchkit.round span per top-level drain.

# Thread Safety

  - Runtime is NOT safe for concurrent use; confine it to one goroutine
  - Activity[A] values are freely copyable but must be used on that goroutine
  - journal.Store implementations are safe for concurrent use

# Subpackages

  - slots: generation-checked slot table underlying activity handles
  - config: file-based runtime configuration
  - journal: incident journal storage (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
*/
package dispatchkit

package dispatchkit

import (
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/journal"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/observability"
)

// Publish broadcasts a message to every matching subscriber, in strict
// registration order. The message's dynamic type selects the subscribers.
//
// A reentrant Publish (issued from inside a running handler) is queued and
// dispatched only after the outer dispatch's remaining subscribers have
// run; it is never interleaved into the middle of an in-progress dispatch.
func Publish(rt *Runtime, msg any) {
	if msg == nil {
		panic("dispatchkit: message cannot be nil")
	}
	_ = rt.submit(&broadcastOp{top: messageTopic(tagOfValue(msg)), msg: msg})
}

// PublishAwait is Publish with a completion future. The returned Response
// resolves exactly once, after all subscribers matched at dispatch time
// have completed; it resolves immediately, marked unfulfilled, when no
// subscriber matched. If a matched subscriber deferred further work, the
// resolution is postponed to the end of that deferred round.
func PublishAwait(rt *Runtime, msg any) *Response {
	if msg == nil {
		panic("dispatchkit: message cannot be nil")
	}
	resp := &Response{}
	_ = rt.submit(&broadcastOp{top: messageTopic(tagOfValue(msg)), msg: msg, resp: resp})
	return resp
}

// SendTo delivers a message privately to a single activity, transferring
// ownership of the value to its handler. Returns ErrStaleHandle if the
// target has been deleted and ErrNoSubscription if the target owns no live
// subscription for the message type; both are recoverable and leave no
// observable side effect.
//
// When issued reentrantly the send is deferred and any failure is reported
// through the diagnostics channels instead of a return value.
func SendTo(rt *Runtime, h Handle, msg any) error {
	if msg == nil {
		panic("dispatchkit: message cannot be nil")
	}
	return rt.submit(&broadcastOp{top: messageTopic(tagOfValue(msg)), msg: msg, target: &h})
}

// broadcastOp carries one pending publish or private send.
type broadcastOp struct {
	top    topic
	msg    any
	target *Handle   // nil for a global broadcast
	resp   *Response // nil unless awaiting a response
}

func (op *broadcastOp) describe() string {
	if op.target != nil {
		return "send " + op.top.String()
	}
	return "publish " + op.top.String()
}

func (op *broadcastOp) exec(rt *Runtime) error {
	return rt.runBroadcast(op)
}

// runBroadcast dispatches one message. The subscriber list is a snapshot
// taken at dispatch start: subscriptions added by this dispatch's own
// callbacks are visible only to subsequent publishes. A panicking callback
// is recovered and diagnosed without aborting the remaining entries.
func (rt *Runtime) runBroadcast(b *broadcastOp) error {
	if b.target != nil {
		if _, ok := rt.activities.Get(*b.target); !ok {
			if b.resp != nil {
				b.resp.resolve(Result{Unfulfilled: true})
			}
			return ErrStaleHandle
		}
	}

	done := observability.TimedOperation()
	list := rt.subs[b.top]
	snapshot := make([]*subscription, len(list))
	copy(snapshot, list)

	var delivered, failed int
	matched := false
	queuedBefore := len(rt.queue)

	for _, sub := range snapshot {
		if b.target != nil && (!sub.owned || sub.owner != *b.target) {
			continue
		}
		var state any
		if sub.owned {
			cell, ok := rt.activities.Get(sub.owner)
			if !ok {
				// Owner deleted after the snapshot was taken.
				continue
			}
			matched = true
			if !sub.mask.Contains(cell.status) {
				continue
			}
			state = cell.state
		} else if b.target != nil {
			// Private sends address owned subscriptions only.
			continue
		}
		if rt.runRecovered(sub.name, b.top.String(), sub.domain, func() {
			sub.invoke(rt, state, b.msg)
		}) {
			delivered++
		} else {
			failed++
		}
	}

	durationMs := done()
	observability.LogDispatch(rt.logger, rt.id, b.top.String(), delivered, failed, durationMs)
	rt.metrics.RecordDispatch(rt.ctx, b.top.String(), delivered+failed, durationMs, failed)

	if b.resp != nil {
		res := Result{Delivered: delivered, Failed: failed, Unfulfilled: delivered+failed == 0}
		if len(rt.queue) > queuedBefore {
			// A subscriber deferred further work; resolve after that round.
			rt.queue = append(rt.queue, &resolveOp{resp: b.resp, result: res})
		} else {
			b.resp.resolve(res)
		}
	}

	if b.target != nil && !matched {
		return ErrNoSubscription
	}
	return nil
}

// runRecovered invokes fn, isolating a panic to this one callback.
// Reports true when fn completed normally.
func (rt *Runtime) runRecovered(activity, topicName string, domain DomainID, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			perr := &PanicError{Activity: activity, Topic: topicName, Domain: domain, Value: r}
			rt.incident(journal.KindPanic, perr, activity, topicName, domain)
		}
	}()
	fn()
	return true
}

package dispatchkit

import (
	"errors"

	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/journal"
	"github.com/randalmurphal/dispatchkit/pkg/dispatchkit/observability"
)

// deferredOp is one pending mutating request: registration, subscription,
// publish, domain store, lifecycle change, capsule run or response
// resolution. Operations are applied in strict FIFO arrival order.
type deferredOp interface {
	exec(rt *Runtime) error
	describe() string
}

// submit is the single entry point for all mutating requests. The request
// is appended to the queue; if no dispatch is currently on the call stack
// the queue is drained immediately, otherwise the request stays queued and
// its effects are postponed until the outermost dispatch returns.
//
// Errors are returned to the caller only for the request that started the
// drain; failures of queued (reentrant) operations have no caller on the
// stack and are reported through the diagnostics channels instead.
func (rt *Runtime) submit(op deferredOp) error {
	rt.queue = append(rt.queue, op)
	if rt.executing {
		observability.LogDeferred(rt.logger, rt.id, op.describe(), len(rt.queue))
		rt.metrics.RecordQueueDepth(rt.ctx, len(rt.queue))
		if rt.queueWarnLen > 0 && !rt.queueWarnOnce && len(rt.queue) > rt.queueWarnLen {
			rt.queueWarnOnce = true
			observability.LogQueueDepth(rt.logger, rt.id, len(rt.queue))
		}
		return nil
	}
	return rt.drain(op)
}

// drain applies queued operations one at a time until quiescence. An
// operation enqueued by the processing of an earlier one is appended after
// all currently queued ones: siblings enqueued at the same nesting level
// run before their own grandchildren (breadth-first, never depth-first).
func (rt *Runtime) drain(first deferredOp) error {
	rt.executing = true
	rt.queueWarnOnce = false

	roundCtx, span := rt.spans.StartRoundSpan(rt.ctx, rt.id, first.describe())
	prevCtx := rt.ctx
	rt.ctx = roundCtx

	var firstErr error
	for len(rt.queue) > 0 {
		op := rt.queue[0]
		rt.queue[0] = nil
		rt.queue = rt.queue[1:]

		err := op.exec(rt)
		if err == nil {
			continue
		}
		if op == first {
			firstErr = err
		} else {
			rt.reportDeferred(op, err)
		}
	}

	rt.ctx = prevCtx
	rt.executing = false
	rt.spans.EndSpanWithError(span, firstErr)
	return firstErr
}

// reportDeferred routes the failure of a queued operation to diagnostics.
func (rt *Runtime) reportDeferred(op deferredOp, err error) {
	kind := journal.KindError
	switch {
	case errors.Is(err, ErrStaleHandle):
		kind = journal.KindStaleHandle
	case errors.Is(err, ErrNoSubscription):
		kind = journal.KindUnmatchedSend
	}
	rt.incident(kind, err, "", op.describe(), NoDomain)
}

// registerOp installs a previously reserved activity slot.
type registerOp struct {
	handle Handle
	cell   activityCell
}

func (op *registerOp) describe() string { return "register " + op.cell.name }

func (op *registerOp) exec(rt *Runtime) error {
	if op.cell.domain != NoDomain {
		rt.prepareDomain(op.cell.domain)
	}
	if !rt.activities.Commit(op.handle, op.cell) {
		// The handle was reserved by us and cannot have been deleted before
		// installation; a failing commit means corrupted bookkeeping.
		panic("dispatchkit: activity slot commit failed")
	}
	rt.metrics.RecordLifecycle(rt.ctx, StatusActive.String())
	return nil
}

// subscribeOp appends an entry to the subscription registry, assigning the
// next global order number. Assignment happens at execution time, so
// delivery order matches arrival order even across deferred rounds.
type subscribeOp struct {
	sub *subscription
}

func (op *subscribeOp) describe() string { return "subscribe " + op.sub.top.String() }

func (op *subscribeOp) exec(rt *Runtime) error {
	if op.sub.owned {
		if _, ok := rt.activities.Get(op.sub.owner); !ok {
			return ErrStaleHandle
		}
	}
	op.sub.seq = rt.nextSeq
	rt.nextSeq++
	rt.subs[op.sub.top] = append(rt.subs[op.sub.top], op.sub)
	return nil
}

// onDeleteOp attaches the deletion callback to an activity.
type onDeleteOp struct {
	handle Handle
	fn     func(state any)
}

func (op *onDeleteOp) describe() string { return "on-delete" }

func (op *onDeleteOp) exec(rt *Runtime) error {
	cell, ok := rt.activities.Get(op.handle)
	if !ok {
		return ErrStaleHandle
	}
	cell.onDelete = op.fn
	return nil
}

// storeOp writes a value into a domain, replacing any previous value of the
// same type.
type storeOp struct {
	domain DomainID
	tag    TypeTag
	value  any // *D, boxed
}

func (op *storeOp) describe() string { return "store " + op.tag.String() }

func (op *storeOp) exec(rt *Runtime) error {
	rt.prepareDomain(op.domain).objects[op.tag] = op.value
	return nil
}

// capsuleOp runs an encapsulated closure with full activity access.
type capsuleOp struct {
	handle Handle
	fn     func(rt *Runtime, state any)
	name   string
}

func (op *capsuleOp) describe() string { return "capsule " + op.name }

func (op *capsuleOp) exec(rt *Runtime) error {
	cell, ok := rt.activities.Get(op.handle)
	if !ok {
		return ErrStaleHandle
	}
	if cell.status != StatusActive {
		return nil
	}
	rt.runRecovered(op.name, "capsule", cell.domain, func() {
		op.fn(rt, cell.state)
	})
	return nil
}

// resolveOp completes a response future at the end of the deferred round
// spawned by its dispatch.
type resolveOp struct {
	resp   *Response
	result Result
}

func (op *resolveOp) describe() string { return "resolve" }

func (op *resolveOp) exec(rt *Runtime) error {
	op.resp.resolve(op.result)
	return nil
}

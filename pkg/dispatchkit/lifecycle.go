package dispatchkit

// Status is an activity's lifecycle status.
type Status uint8

const (
	// StatusActive is the initial status of every activity.
	StatusActive Status = iota
	// StatusInactive puts an activity to sleep: subscriptions with the
	// default mask stop firing until it is re-activated.
	StatusInactive
	// StatusDeleted is terminal: the slot entry is removed, the handle
	// invalidated and all owned subscriptions dropped.
	StatusDeleted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// SetStatus transitions an activity's lifecycle status.
//
//   - Entering Active from a non-Active state fires the activity's OnEnter
//     callbacks after the status flips.
//   - Leaving Active fires OnLeave callbacks before the status flips.
//   - Transitioning to Deleted fires the OnDelete callback with the owned
//     state, removes the slot entry and drops all owned subscriptions.
//
// Setting the currently-held status is a no-op and fires nothing. A
// transition on an already-deleted (stale) handle is a no-op reported as
// ErrStaleHandle. Reentrant calls are deferred like every other mutating
// request.
func SetStatus(rt *Runtime, h Handle, status Status) error {
	return rt.submit(&lifecycleOp{handle: h, status: status})
}

// Delete is shorthand for SetStatus(rt, h, StatusDeleted).
func Delete(rt *Runtime, h Handle) error {
	return SetStatus(rt, h, StatusDeleted)
}

// lifecycleOp carries one pending status transition.
type lifecycleOp struct {
	handle Handle
	status Status
}

func (op *lifecycleOp) describe() string { return "set-status " + op.status.String() }

func (op *lifecycleOp) exec(rt *Runtime) error {
	cell, ok := rt.activities.Get(op.handle)
	if !ok {
		return ErrStaleHandle
	}
	if cell.status == op.status {
		return nil
	}

	switch op.status {
	case StatusDeleted:
		rt.deleteActivity(op.handle)
	case StatusActive:
		cell.status = StatusActive
		rt.lifecycleBroadcast(enterTopic, op.handle)
	case StatusInactive:
		rt.lifecycleBroadcast(leaveTopic, op.handle)
		// The broadcast cannot mutate the table (nested requests are
		// deferred), so the cell pointer is still the live entry.
		cell.status = StatusInactive
	}
	rt.metrics.RecordLifecycle(rt.ctx, op.status.String())
	return nil
}

// lifecycleBroadcast delivers a builtin enter/leave topic to the hooks of a
// single activity, inline within the current lifecycle operation.
func (rt *Runtime) lifecycleBroadcast(tp topic, h Handle) {
	// ErrNoSubscription just means the activity registered no hooks.
	_ = rt.runBroadcast(&broadcastOp{top: tp, target: &h})
}

// deleteActivity removes the slot entry (invalidating the handle), hands
// the owned state to the deletion callback, and strips all subscriptions
// owned by the handle.
func (rt *Runtime) deleteActivity(h Handle) {
	cell, ok := rt.activities.Remove(h)
	if !ok {
		return
	}
	if cell.onDelete != nil {
		rt.runRecovered(cell.name, "delete", cell.domain, func() {
			cell.onDelete(cell.state)
		})
	}
	rt.removeOwned(h)
}

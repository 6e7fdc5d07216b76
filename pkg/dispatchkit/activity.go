package dispatchkit

// Activity is a typed reference to a registered activity. It carries the
// activity's generation-checked Handle plus the state type, so subscription
// callbacks can be type-checked at compile time.
//
// Activity values are small and freely copyable.
type Activity[A any] struct {
	handle Handle
	domain DomainID
}

// Handle returns the untyped generation-checked handle, as consumed by
// SetStatus, Delete and SendTo.
func (a Activity[A]) Handle() Handle {
	return a.handle
}

// NewActivity registers state as a new activity and returns its reference.
// The activity starts Active; no enter callback fires for the initial
// status.
//
// When called from inside a running handler the installation is deferred,
// but the returned reference is final: its slot is reserved immediately, so
// two reentrant registrations can never be handed the same slot.
func NewActivity[A any](rt *Runtime, state *A) Activity[A] {
	return newActivity(rt, state, NoDomain)
}

// NewDomainedActivity registers state as a new activity bound to a domain.
// The domain is created lazily if this is its first use. Domain-bound
// subscriptions are only available on activities registered this way.
func NewDomainedActivity[A any](rt *Runtime, domain DomainEnumeration, state *A) Activity[A] {
	return newActivity(rt, state, domainIDOf(domain))
}

func newActivity[A any](rt *Runtime, state *A, domain DomainID) Activity[A] {
	if state == nil {
		panic("dispatchkit: activity state cannot be nil")
	}
	h := rt.activities.Reserve()
	cell := activityCell{
		state:  state,
		status: StatusActive,
		domain: domain,
		name:   typeName[A](),
	}
	// registerOp cannot fail; no error to surface.
	_ = rt.submit(&registerOp{handle: h, cell: cell})
	return Activity[A]{handle: h, domain: domain}
}

// Encapsulate packs a closure with full access to the activity's state. The
// returned function may only run at quiescence (typically as an external
// event-loop callback); invoking it while the runtime is dispatching
// returns ErrRuntimeActive. The closure is skipped while the activity is
// not Active and ErrStaleHandle is returned once it has been deleted.
func Encapsulate[A any](rt *Runtime, a Activity[A], fn func(*A)) func() error {
	op := &capsuleOp{
		handle: a.handle,
		name:   typeName[A](),
		fn: func(rt *Runtime, state any) {
			fn(state.(*A))
		},
	}
	return func() error {
		if rt.executing {
			return ErrRuntimeActive
		}
		return rt.submit(op)
	}
}

// EncapsulateDomained is Encapsulate with additional access to the
// activity's domain value of type D. The domain payload type is validated
// on every invocation, before the closure is queued.
func EncapsulateDomained[A, D any](rt *Runtime, a Activity[A], fn func(*A, *D)) func() error {
	op := &capsuleOp{
		handle: a.handle,
		name:   typeName[A](),
		fn: func(rt *Runtime, state any) {
			if d, ok := domainValue[D](rt, a.domain); ok {
				fn(state.(*A), d)
			}
		},
	}
	return func() error {
		if rt.executing {
			return ErrRuntimeActive
		}
		if a.domain == NoDomain {
			return ErrNoDomain
		}
		if !rt.domainHasType(a.domain, TagOf[D]()) {
			return &DomainTypeError{Domain: a.domain, Type: TagOf[D]()}
		}
		return rt.submit(op)
	}
}

package dispatchkit

// StatusMask selects the lifecycle statuses for which a subscription fires.
type StatusMask uint8

const (
	// MaskActive delivers while the owning activity is Active.
	MaskActive StatusMask = 1 << iota
	// MaskInactive delivers while the owning activity is Inactive.
	MaskInactive
)

// MaskAll delivers regardless of the owner's status (deleted owners never
// receive messages; their subscriptions are gone).
const MaskAll = MaskActive | MaskInactive

// Contains reports whether the mask includes the given status.
func (m StatusMask) Contains(s Status) bool {
	switch s {
	case StatusActive:
		return m&MaskActive != 0
	case StatusInactive:
		return m&MaskInactive != 0
	default:
		return false
	}
}

// subscription is one entry in the registry: the topic key, the optional
// owner and domain, the status mask, the global insertion sequence number
// and the type-erased invoke closure packed by the generic front-end.
type subscription struct {
	top    topic
	owner  Handle
	owned  bool
	domain DomainID
	mask   StatusMask
	seq    uint64
	name   string // owning state type, for diagnostics
	invoke func(rt *Runtime, state any, msg any)
}

// removeOwned strips every subscription owned by h from the registry.
// Called during activity deletion.
func (rt *Runtime) removeOwned(h Handle) {
	for tp, list := range rt.subs {
		kept := list[:0]
		for _, sub := range list {
			if sub.owned && sub.owner == h {
				continue
			}
			kept = append(kept, sub)
		}
		if len(kept) == 0 {
			delete(rt.subs, tp)
		} else {
			rt.subs[tp] = kept
		}
	}
}

// Subscribe registers a callback on an activity for messages of type M.
// Delivery order is strict registration order, across any mix of top-level
// and reentrant registrations. By default the callback only fires while the
// activity is Active; use SubscribeMasked for more control.
//
// Returns ErrStaleHandle if the activity has been deleted. Like all
// mutating requests, a reentrant Subscribe takes effect only after the
// current dispatch finishes — in particular, a subscription added by a
// handler never receives the message that triggered its own registration.
func Subscribe[A, M any](rt *Runtime, a Activity[A], fn func(*A, M)) error {
	return SubscribeMasked(rt, a, MaskActive, fn)
}

// SubscribeMasked is Subscribe with an explicit lifecycle-status mask.
func SubscribeMasked[A, M any](rt *Runtime, a Activity[A], mask StatusMask, fn func(*A, M)) error {
	sub := &subscription{
		top:    messageTopic(TagOf[M]()),
		owner:  a.handle,
		owned:  true,
		domain: a.domain,
		mask:   mask,
		name:   typeName[A](),
		invoke: func(rt *Runtime, state, msg any) {
			s, ok := state.(*A)
			if !ok {
				return
			}
			m, ok := msg.(M)
			if !ok {
				return
			}
			fn(s, m)
		},
	}
	return rt.submit(&subscribeOp{sub: sub})
}

// SubscribeDomained registers a callback that additionally receives mutable
// access to the domain's value of type D.
//
// The domain payload type is validated immediately: registering for a type
// never stored in the domain is a programming error and returns a
// DomainTypeError right away rather than failing at first dispatch.
// Returns ErrNoDomain if the activity was registered without a domain.
func SubscribeDomained[A, D, M any](rt *Runtime, a Activity[A], fn func(*A, *D, M)) error {
	return SubscribeDomainedMasked(rt, a, MaskActive, fn)
}

// SubscribeDomainedMasked is SubscribeDomained with an explicit
// lifecycle-status mask.
func SubscribeDomainedMasked[A, D, M any](rt *Runtime, a Activity[A], mask StatusMask, fn func(*A, *D, M)) error {
	if err := rt.checkDomainBinding(a.domain, TagOf[D]()); err != nil {
		return err
	}
	sub := &subscription{
		top:    messageTopic(TagOf[M]()),
		owner:  a.handle,
		owned:  true,
		domain: a.domain,
		mask:   mask,
		name:   typeName[A](),
		invoke: func(rt *Runtime, state, msg any) {
			s, ok := state.(*A)
			if !ok {
				return
			}
			m, ok := msg.(M)
			if !ok {
				return
			}
			d, ok := domainValue[D](rt, a.domain)
			if !ok {
				// Cannot happen after the registration-time check; the store
				// only ever replaces values of the same type.
				return
			}
			fn(s, d, m)
		},
	}
	return rt.submit(&subscribeOp{sub: sub})
}

// SubscribeFunc registers a free-standing callback with no owning activity.
// It has no lifecycle status to gate on and always fires.
func SubscribeFunc[M any](rt *Runtime, fn func(M)) {
	sub := &subscription{
		top:    messageTopic(TagOf[M]()),
		domain: NoDomain,
		mask:   MaskAll,
		invoke: func(rt *Runtime, _ any, msg any) {
			if m, ok := msg.(M); ok {
				fn(m)
			}
		},
	}
	// Unowned subscriptions cannot fail to register.
	_ = rt.submit(&subscribeOp{sub: sub})
}

// checkDomainBinding validates a domain-bound registration (fail fast).
func (rt *Runtime) checkDomainBinding(id DomainID, tag TypeTag) error {
	if id == NoDomain {
		return ErrNoDomain
	}
	if !rt.domainHasType(id, tag) {
		return &DomainTypeError{Domain: id, Type: tag}
	}
	return nil
}

// OnEnter registers a callback invoked after the activity's status flips
// from a non-Active state to Active. It does not fire for the initial
// Active status at registration.
func OnEnter[A any](rt *Runtime, a Activity[A], fn func(*A)) error {
	return lifecycleSubscription(rt, a, enterTopic, fn)
}

// OnLeave registers a callback invoked when the activity leaves Active,
// before the status flips (the handler still observes an Active activity).
func OnLeave[A any](rt *Runtime, a Activity[A], fn func(*A)) error {
	return lifecycleSubscription(rt, a, leaveTopic, fn)
}

func lifecycleSubscription[A any](rt *Runtime, a Activity[A], tp topic, fn func(*A)) error {
	sub := &subscription{
		top:    tp,
		owner:  a.handle,
		owned:  true,
		domain: a.domain,
		mask:   MaskAll,
		name:   typeName[A](),
		invoke: func(rt *Runtime, state, _ any) {
			if s, ok := state.(*A); ok {
				fn(s)
			}
		},
	}
	return rt.submit(&subscribeOp{sub: sub})
}

// OnEnterDomained is OnEnter with domain access.
func OnEnterDomained[A, D any](rt *Runtime, a Activity[A], fn func(*A, *D)) error {
	return lifecycleSubscriptionDomained(rt, a, enterTopic, fn)
}

// OnLeaveDomained is OnLeave with domain access.
func OnLeaveDomained[A, D any](rt *Runtime, a Activity[A], fn func(*A, *D)) error {
	return lifecycleSubscriptionDomained(rt, a, leaveTopic, fn)
}

func lifecycleSubscriptionDomained[A, D any](rt *Runtime, a Activity[A], tp topic, fn func(*A, *D)) error {
	if err := rt.checkDomainBinding(a.domain, TagOf[D]()); err != nil {
		return err
	}
	sub := &subscription{
		top:    tp,
		owner:  a.handle,
		owned:  true,
		domain: a.domain,
		mask:   MaskAll,
		name:   typeName[A](),
		invoke: func(rt *Runtime, state, _ any) {
			s, ok := state.(*A)
			if !ok {
				return
			}
			if d, ok := domainValue[D](rt, a.domain); ok {
				fn(s, d)
			}
		},
	}
	return rt.submit(&subscribeOp{sub: sub})
}

// OnDelete registers the deletion callback. On the transition to
// StatusDeleted it receives the activity's state back, after the slot entry
// has been removed and the handle invalidated. At most one deletion
// callback is kept per activity; a later registration replaces it.
func OnDelete[A any](rt *Runtime, a Activity[A], fn func(*A)) error {
	return rt.submit(&onDeleteOp{
		handle: a.handle,
		fn: func(state any) {
			if s, ok := state.(*A); ok {
				fn(s)
			}
		},
	})
}

// OnDeleteDomained is OnDelete with domain access.
func OnDeleteDomained[A, D any](rt *Runtime, a Activity[A], fn func(*A, *D)) error {
	if err := rt.checkDomainBinding(a.domain, TagOf[D]()); err != nil {
		return err
	}
	return rt.submit(&onDeleteOp{
		handle: a.handle,
		fn: func(state any) {
			s, ok := state.(*A)
			if !ok {
				return
			}
			if d, ok := domainValue[D](rt, a.domain); ok {
				fn(s, d)
			}
		},
	})
}

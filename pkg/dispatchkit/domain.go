package dispatchkit

// DomainID identifies a shared, type-keyed state bucket. It is derived from
// a DomainEnumeration and is a small non-negative integer.
type DomainID int

// NoDomain marks an activity or subscription that is not bound to any
// domain.
const NoDomain DomainID = -1

// DomainEnumeration maps a user-defined domain type to its DomainID.
// Implementations typically wrap a small enum:
//
//	type GameDomain int
//
//	const (
//	    WorldDomain GameDomain = iota
//	    UIDomain
//	)
//
//	func (d GameDomain) DomainID() int { return int(d) }
//
// Different DomainEnumeration types should never be mixed within one
// Runtime; their integer spaces would collide.
type DomainEnumeration interface {
	// DomainID returns the unique non-negative integer for the domain.
	DomainID() int
}

// DefaultDomain is a ready-made enumeration for applications that need only
// a single domain. Do not mix it with a custom DomainEnumeration type.
type DefaultDomain struct{}

// DomainID implements DomainEnumeration.
func (DefaultDomain) DomainID() int { return 0 }

// domainState holds at most one value per payload type. Values are stored
// boxed behind pointers so domain-bound handlers can mutate them in place.
type domainState struct {
	objects map[TypeTag]any // TypeTag of D -> *D
}

func newDomainState() *domainState {
	return &domainState{objects: make(map[TypeTag]any)}
}

// domainIDOf validates and converts an enumeration value.
// Panics on a negative id, which is a programming error.
func domainIDOf(d DomainEnumeration) DomainID {
	id := d.DomainID()
	if id < 0 {
		panic("dispatchkit: domain id must be non-negative")
	}
	return DomainID(id)
}

// prepareDomain materializes the bucket for id. Domains are created lazily
// on first store, first domain-bound registration, or first domained
// activity; they live for the rest of the process.
func (rt *Runtime) prepareDomain(id DomainID) *domainState {
	for len(rt.domains) <= int(id) {
		rt.domains = append(rt.domains, nil)
	}
	if rt.domains[id] == nil {
		rt.domains[id] = newDomainState()
	}
	return rt.domains[id]
}

func (rt *Runtime) domain(id DomainID) *domainState {
	if id < 0 || int(id) >= len(rt.domains) {
		return nil
	}
	return rt.domains[id]
}

// domainValue fetches the stored *D for a domain, if present.
func domainValue[D any](rt *Runtime, id DomainID) (*D, bool) {
	ds := rt.domain(id)
	if ds == nil {
		return nil, false
	}
	v, ok := ds.objects[TagOf[D]()]
	if !ok {
		return nil, false
	}
	p, ok := v.(*D)
	return p, ok
}

// domainHasType reports whether the domain holds (or is about to hold) a
// value of the tagged type. Pending stores already queued count, so a
// registration that immediately follows a reentrant StoreToDomain is not
// rejected.
func (rt *Runtime) domainHasType(id DomainID, tag TypeTag) bool {
	if ds := rt.domain(id); ds != nil {
		if _, ok := ds.objects[tag]; ok {
			return true
		}
	}
	for _, op := range rt.queue {
		if st, ok := op.(*storeOp); ok && st.domain == id && st.tag == tag {
			return true
		}
	}
	return false
}

// StoreToDomain stores a value in a domain, replacing any previous value of
// the same type. The domain is created on first use. Values are retrievable
// only through domain-bound subscriptions, never through a public
// get-by-type call.
//
// Like every mutating request, the store is deferred when issued from
// inside a running handler and applied once the current dispatch finishes.
func StoreToDomain[D any](rt *Runtime, domain DomainEnumeration, value D) error {
	boxed := &value
	return rt.submit(&storeOp{
		domain: domainIDOf(domain),
		tag:    TagOf[D](),
		value:  boxed,
	})
}

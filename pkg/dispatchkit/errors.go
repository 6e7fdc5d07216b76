package dispatchkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for handle and subscription lookups.
var (
	// ErrStaleHandle indicates the operation referenced a handle whose slot
	// has been deleted (and possibly reused). The operation had no effect.
	ErrStaleHandle = errors.New("stale activity handle")

	// ErrNoSubscription indicates a private send found no live subscription
	// for the target handle and message type.
	ErrNoSubscription = errors.New("no matching subscription")

	// ErrNoDomain indicates a domain-bound operation was attempted on an
	// activity that was registered without a domain.
	ErrNoDomain = errors.New("activity has no domain")
)

// Sentinel errors for encapsulated closures.
var (
	// ErrRuntimeActive indicates an encapsulated closure was invoked while
	// a dispatch was already executing. Encapsulated closures may only run
	// at quiescence.
	ErrRuntimeActive = errors.New("runtime is currently dispatching")
)

// DomainTypeError reports a domain-bound subscription whose declared domain
// payload type has never been stored in the domain. It is raised at
// registration time, not at dispatch time, because it indicates a
// programming error that should fail fast.
type DomainTypeError struct {
	// Domain is the domain the subscription is bound to.
	Domain DomainID
	// Type is the declared domain payload type.
	Type TypeTag
}

// Error implements the error interface.
func (e *DomainTypeError) Error() string {
	return fmt.Sprintf("domain %d holds no value of type %s", e.Domain, e.Type)
}

// PanicError wraps a panic recovered from a subscription or lifecycle
// callback. The remaining subscribers of the same dispatch still run.
type PanicError struct {
	// Activity is the owning activity's state type name, if any.
	Activity string
	// Topic names the message type (or lifecycle topic) being dispatched.
	Topic string
	// Domain is the owning activity's domain, or NoDomain.
	Domain DomainID
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if e.Activity != "" {
		return fmt.Sprintf("handler for %s on activity %s panicked: %v", e.Topic, e.Activity, e.Value)
	}
	return fmt.Sprintf("handler for %s panicked: %v", e.Topic, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

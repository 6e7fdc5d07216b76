// Package slots provides a generation-checked slot table: an arena that
// hands out stable handles for inserted values and detects use of handles
// whose slot has since been removed and reused.
//
// Indices are recycled from a free list in LIFO order. Every removal bumps
// the slot's generation, so a handle taken before the removal no longer
// matches and is rejected instead of silently aliasing the new occupant.
//
// Table is NOT thread-safe. It is designed for single-threaded, event-loop
// driven use; callers serialize access themselves.
package slots

import "fmt"

// Handle references a slot in a Table. The zero value is a valid reference
// to the first slot ever created; use a separate flag to model "no handle".
type Handle struct {
	index uint32
	gen   uint32
}

// String returns a compact form like "slot(3@2)" for diagnostics.
func (h Handle) String() string {
	return fmt.Sprintf("slot(%d@%d)", h.index, h.gen)
}

type entry[T any] struct {
	gen      uint32
	occupied bool
	value    T
}

// Table stores values of type T and addresses them through generation-checked
// handles. Removed slots are recycled; stale handles are detected on every
// access.
type Table[T any] struct {
	entries []entry[T]
	free    []uint32 // LIFO reuse
	// Number of indices promised by Reserve beyond len(entries). The backing
	// slice only grows on Commit, so pointers obtained from Get stay valid
	// across Reserve.
	reserved uint32
	length   int
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{}
}

// Insert stores a value and returns its handle.
func (t *Table[T]) Insert(v T) Handle {
	h := t.Reserve()
	t.Commit(h, v)
	return h
}

// Reserve allocates a handle without installing a value. The slot stays
// vacant (Get and Remove reject the handle) until Commit installs the value.
//
// Reserve never moves existing entries, which makes it safe to call while
// pointers returned by Get are still in use.
func (t *Table[T]) Reserve() Handle {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		return Handle{index: idx, gen: t.entries[idx].gen}
	}
	idx := uint32(len(t.entries)) + t.reserved
	t.reserved++
	return Handle{index: idx}
}

// Commit installs a value into a slot previously allocated by Reserve.
// It returns false if the handle is stale or the slot is already occupied.
func (t *Table[T]) Commit(h Handle, v T) bool {
	if h.index >= uint32(len(t.entries))+t.reserved {
		return false
	}
	for uint32(len(t.entries)) <= h.index {
		t.entries = append(t.entries, entry[T]{})
		t.reserved--
	}
	e := &t.entries[h.index]
	if e.occupied || e.gen != h.gen {
		return false
	}
	e.occupied = true
	e.value = v
	t.length++
	return true
}

// Get returns a pointer to the value for h, or false if the handle is stale
// or the slot is vacant. The pointer is invalidated by the next Commit or
// Insert; do not retain it across mutations.
func (t *Table[T]) Get(h Handle) (*T, bool) {
	if h.index >= uint32(len(t.entries)) {
		return nil, false
	}
	e := &t.entries[h.index]
	if !e.occupied || e.gen != h.gen {
		return nil, false
	}
	return &e.value, true
}

// Remove deletes the slot for h and returns the owned value. The slot's
// generation is bumped and its index pushed onto the free list, so h and any
// copy of it are stale from this point on. Returns false for a handle that
// is already stale.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	var zero T
	if h.index >= uint32(len(t.entries)) {
		return zero, false
	}
	e := &t.entries[h.index]
	if !e.occupied || e.gen != h.gen {
		return zero, false
	}
	v := e.value
	e.value = zero
	e.occupied = false
	e.gen++
	t.free = append(t.free, h.index)
	t.length--
	return v, true
}

// Len returns the number of occupied slots.
func (t *Table[T]) Len() int {
	return t.length
}

// Cap returns the total number of materialized slots, occupied or not.
func (t *Table[T]) Cap() int {
	return len(t.entries)
}

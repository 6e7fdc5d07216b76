package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	tab := New[string]()

	h1 := tab.Insert("one")
	h2 := tab.Insert("two")

	v, ok := tab.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "one", *v)

	v, ok = tab.Get(h2)
	require.True(t, ok)
	assert.Equal(t, "two", *v)

	assert.Equal(t, 2, tab.Len())
}

func TestGetMutatesThroughPointer(t *testing.T) {
	tab := New[int]()
	h := tab.Insert(1)

	v, ok := tab.Get(h)
	require.True(t, ok)
	*v = 42

	v, ok = tab.Get(h)
	require.True(t, ok)
	assert.Equal(t, 42, *v)
}

func TestRemoveReturnsValue(t *testing.T) {
	tab := New[string]()
	h := tab.Insert("payload")

	v, ok := tab.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "payload", v)
	assert.Equal(t, 0, tab.Len())

	// Second removal of the same handle is rejected.
	_, ok = tab.Remove(h)
	assert.False(t, ok)
}

func TestStaleHandleAfterReuse(t *testing.T) {
	tab := New[string]()

	old := tab.Insert("first")
	_, ok := tab.Remove(old)
	require.True(t, ok)

	// The index is recycled for the next insert.
	reused := tab.Insert("second")
	assert.Equal(t, 1, tab.Cap())

	// The old handle must not alias the new occupant.
	_, ok = tab.Get(old)
	assert.False(t, ok)
	_, ok = tab.Remove(old)
	assert.False(t, ok)

	v, ok := tab.Get(reused)
	require.True(t, ok)
	assert.Equal(t, "second", *v)
}

func TestFreeListLIFO(t *testing.T) {
	tab := New[int]()
	h0 := tab.Insert(0)
	h1 := tab.Insert(1)
	h2 := tab.Insert(2)

	tab.Remove(h0)
	tab.Remove(h2)

	// Last freed index (h2's) is reused first.
	r1 := tab.Insert(20)
	r2 := tab.Insert(10)
	assert.Equal(t, 3, tab.Cap())

	v, ok := tab.Get(r1)
	require.True(t, ok)
	assert.Equal(t, 20, *v)
	v, ok = tab.Get(r2)
	require.True(t, ok)
	assert.Equal(t, 10, *v)
	v, ok = tab.Get(h1)
	require.True(t, ok)
	assert.Equal(t, 1, *v)
}

func TestReserveCommit(t *testing.T) {
	tab := New[string]()

	h := tab.Reserve()

	// Vacant until committed.
	_, ok := tab.Get(h)
	assert.False(t, ok)
	assert.Equal(t, 0, tab.Len())

	require.True(t, tab.Commit(h, "late"))
	v, ok := tab.Get(h)
	require.True(t, ok)
	assert.Equal(t, "late", *v)

	// Double commit is rejected.
	assert.False(t, tab.Commit(h, "again"))
}

func TestReserveDistinctSlots(t *testing.T) {
	tab := New[int]()

	// Two reservations taken before either commit must never share a slot.
	h1 := tab.Reserve()
	h2 := tab.Reserve()
	assert.NotEqual(t, h1, h2)

	require.True(t, tab.Commit(h2, 2))
	require.True(t, tab.Commit(h1, 1))

	v, ok := tab.Get(h1)
	require.True(t, ok)
	assert.Equal(t, 1, *v)
	v, ok = tab.Get(h2)
	require.True(t, ok)
	assert.Equal(t, 2, *v)
}

func TestReserveFromFreeList(t *testing.T) {
	tab := New[string]()
	old := tab.Insert("gone")
	tab.Remove(old)

	h := tab.Reserve()
	require.True(t, tab.Commit(h, "fresh"))

	// The recycled slot carries a newer generation than the removed handle.
	_, ok := tab.Get(old)
	assert.False(t, ok)

	v, ok := tab.Get(h)
	require.True(t, ok)
	assert.Equal(t, "fresh", *v)
}

func TestCommitStaleReservation(t *testing.T) {
	tab := New[int]()

	h := tab.Reserve()
	require.True(t, tab.Commit(h, 7))
	_, ok := tab.Remove(h)
	require.True(t, ok)

	// The reservation handle died with the removal.
	assert.False(t, tab.Commit(h, 8))
}

func TestGetOutOfRange(t *testing.T) {
	tab := New[int]()
	h := tab.Reserve() // promised but not materialized

	_, ok := tab.Get(h)
	assert.False(t, ok)
	_, ok = tab.Remove(h)
	assert.False(t, ok)
}

package dispatchkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMask_Contains(t *testing.T) {
	assert.True(t, MaskActive.Contains(StatusActive))
	assert.False(t, MaskActive.Contains(StatusInactive))
	assert.True(t, MaskInactive.Contains(StatusInactive))
	assert.False(t, MaskInactive.Contains(StatusActive))
	assert.True(t, MaskAll.Contains(StatusActive))
	assert.True(t, MaskAll.Contains(StatusInactive))
	assert.False(t, MaskAll.Contains(StatusDeleted))
}

func TestSubscribe_StaleHandle(t *testing.T) {
	rt := New()

	a := NewActivity(rt, &counterState{})
	require.NoError(t, Delete(rt, a.Handle()))

	err := Subscribe(rt, a, func(*counterState, pingEvent) {})
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestSubscribeMasked(t *testing.T) {
	rt := New()

	active := 0
	inactive := 0
	always := 0

	a := NewActivity(rt, &counterState{})
	require.NoError(t, SubscribeMasked(rt, a, MaskActive, func(*counterState, pingEvent) {
		active++
	}))
	require.NoError(t, SubscribeMasked(rt, a, MaskInactive, func(*counterState, pingEvent) {
		inactive++
	}))
	require.NoError(t, SubscribeMasked(rt, a, MaskAll, func(*counterState, pingEvent) {
		always++
	}))

	Publish(rt, pingEvent{})
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, inactive)
	assert.Equal(t, 1, always)

	require.NoError(t, SetStatus(rt, a.Handle(), StatusInactive))
	Publish(rt, pingEvent{})
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, inactive)
	assert.Equal(t, 2, always)

	require.NoError(t, SetStatus(rt, a.Handle(), StatusActive))
	Publish(rt, pingEvent{})
	assert.Equal(t, 2, active)
	assert.Equal(t, 1, inactive)
	assert.Equal(t, 3, always)
}

func TestSubscribeFunc(t *testing.T) {
	rt := New()

	var got []string
	SubscribeFunc(rt, func(n noteEvent) {
		got = append(got, n.text)
	})

	Publish(rt, noteEvent{text: "one"})
	Publish(rt, noteEvent{text: "two"})

	assert.Equal(t, []string{"one", "two"}, got)
}

func TestOnEnterOnLeave(t *testing.T) {
	rt := New()

	var events []string
	a := NewActivity(rt, &counterState{})

	require.NoError(t, OnEnter(rt, a, func(*counterState) {
		events = append(events, "enter:"+rt.Status(a.Handle()).String())
	}))
	require.NoError(t, OnLeave(rt, a, func(*counterState) {
		events = append(events, "leave:"+rt.Status(a.Handle()).String())
	}))

	// No enter fires for the initial Active status.
	assert.Empty(t, events)

	// Leave fires before the flip, so the handler still sees Active.
	// Enter fires after the flip.
	require.NoError(t, SetStatus(rt, a.Handle(), StatusInactive))
	require.NoError(t, SetStatus(rt, a.Handle(), StatusActive))

	assert.Equal(t, []string{"leave:active", "enter:active"}, events)
}

func TestOnEnterOnLeave_NoopTransitions(t *testing.T) {
	rt := New()

	fired := 0
	a := NewActivity(rt, &counterState{})
	require.NoError(t, OnEnter(rt, a, func(*counterState) { fired++ }))
	require.NoError(t, OnLeave(rt, a, func(*counterState) { fired++ }))

	// Setting the current status fires nothing.
	require.NoError(t, SetStatus(rt, a.Handle(), StatusActive))
	assert.Zero(t, fired)
}

func TestOnDelete(t *testing.T) {
	rt := New()

	var reclaimed *counterState
	state := &counterState{hits: 42}
	a := NewActivity(rt, state)
	require.NoError(t, OnDelete(rt, a, func(c *counterState) {
		reclaimed = c
	}))

	require.NoError(t, Delete(rt, a.Handle()))

	// The callback receives the owned state back after the handle is gone.
	require.NotNil(t, reclaimed)
	assert.Same(t, state, reclaimed)
	assert.Equal(t, 42, reclaimed.hits)
}

func TestOnDelete_LaterRegistrationReplaces(t *testing.T) {
	rt := New()

	var calls []string
	a := NewActivity(rt, &counterState{})
	require.NoError(t, OnDelete(rt, a, func(*counterState) { calls = append(calls, "first") }))
	require.NoError(t, OnDelete(rt, a, func(*counterState) { calls = append(calls, "second") }))

	require.NoError(t, Delete(rt, a.Handle()))

	assert.Equal(t, []string{"second"}, calls)
}

func TestDelete_RemovesSubscriptions(t *testing.T) {
	rt := New()

	delivered := 0
	a := NewActivity(rt, &counterState{})
	require.NoError(t, Subscribe(rt, a, func(*counterState, pingEvent) {
		delivered++
	}))

	Publish(rt, pingEvent{})
	require.NoError(t, Delete(rt, a.Handle()))
	Publish(rt, pingEvent{})

	assert.Equal(t, 1, delivered)
}

func TestDelete_NoLeaveFires(t *testing.T) {
	rt := New()

	var events []string
	a := NewActivity(rt, &counterState{})
	require.NoError(t, OnLeave(rt, a, func(*counterState) { events = append(events, "leave") }))
	require.NoError(t, OnDelete(rt, a, func(*counterState) { events = append(events, "delete") }))

	require.NoError(t, Delete(rt, a.Handle()))

	// Deletion is not a leave; only the deletion callback runs.
	assert.Equal(t, []string{"delete"}, events)
}

package rotor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTimerFireInvokesHandlerOnce verifies Fire invokes the armed
// handler with cancelled=false and that a second Fire is a no-op.
func TestTimerFireInvokesHandlerOnce(t *testing.T) {
	t.Parallel()

	reg := NewTimerRegistry()
	id := newRequestID()

	var calls int
	var lastCancelled bool
	reg.Arm(id, func(cancelled bool) {
		calls++
		lastCancelled = cancelled
	})

	reg.Fire(id)
	require.Equal(t, 1, calls)
	require.False(t, lastCancelled)

	reg.Fire(id)
	require.Equal(t, 1, calls, "a second Fire on an already-resolved id must be a no-op")
}

// TestTimerDisarmSuppressesFire verifies that once a reply arrives and
// calls Disarm, a subsequent Fire for the same id (the timeout losing
// the race) never invokes the handler.
func TestTimerDisarmSuppressesFire(t *testing.T) {
	t.Parallel()

	reg := NewTimerRegistry()
	id := newRequestID()

	called := false
	reg.Arm(id, func(bool) { called = true })

	ok := reg.Disarm(id)
	require.True(t, ok)

	reg.Fire(id)
	require.False(t, called, "Fire after Disarm must not invoke the handler")
}

// TestTimerCancelNotifyInvokesWithCancelled verifies CancelNotify
// removes the timer and invokes the handler with cancelled=true.
func TestTimerCancelNotifyInvokesWithCancelled(t *testing.T) {
	t.Parallel()

	reg := NewTimerRegistry()
	id := newRequestID()

	var gotCancelled bool
	reg.Arm(id, func(cancelled bool) { gotCancelled = cancelled })

	ok := reg.CancelNotify(id)
	require.True(t, ok)
	require.True(t, gotCancelled)
	require.Equal(t, 0, reg.Len())
}

// TestTimerLenTracksPending verifies Len reflects the number of armed,
// unresolved timers.
func TestTimerLenTracksPending(t *testing.T) {
	t.Parallel()

	reg := NewTimerRegistry()
	id1, id2 := newRequestID(), newRequestID()

	reg.Arm(id1, func(bool) {})
	reg.Arm(id2, func(bool) {})
	require.Equal(t, 2, reg.Len())

	reg.Disarm(id1)
	require.Equal(t, 1, reg.Len())

	reg.Fire(id2)
	require.Equal(t, 0, reg.Len())
}

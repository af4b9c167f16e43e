package rotor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResourceGuardHoldsShutdownOpenAcrossExternalIO verifies the
// resource guard: AcquireResource blocks the reverse plugin walk past
// shutdown_start even once DoShutdown has been called, and releasing
// the last held resource lets the walk — and the SHUT_DOWN transition
// — actually complete.
func TestResourceGuardHoldsShutdownOpenAcrossExternalIO(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	a := sup.Base()
	loc.DoProcess()
	require.Equal(t, StateOperational, a.State())

	a.AcquireResource()
	a.DoShutdown(Normal)

	require.Equal(t, StateShuttingDown, a.State(),
		"do_shutdown transitions state immediately even though the guard blocks progress")

	loc.DoProcess()
	require.Equal(t, StateShuttingDown, a.State(),
		"the reverse walk must remain stalled while the resource guard is held")

	a.ReleaseResource()
	require.Equal(t, StateShutDown, a.State(),
		"releasing the last held resource must re-attempt and complete the reverse walk")
}

// TestResourceGuardNestedAcquireRequiresEveryRelease verifies the
// guard only releases shutdown once resourceCount drops to zero, not
// on the first ReleaseResource call after multiple AcquireResource
// calls.
func TestResourceGuardNestedAcquireRequiresEveryRelease(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	a := sup.Base()
	loc.DoProcess()

	a.AcquireResource()
	a.AcquireResource()
	a.DoShutdown(Normal)

	a.ReleaseResource()
	require.Equal(t, StateShuttingDown, a.State(),
		"one outstanding resource must still hold shutdown open")

	a.ReleaseResource()
	require.Equal(t, StateShutDown, a.State())
}

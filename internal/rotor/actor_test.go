package rotor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRequestReplyWinsRace verifies that when HandleResponse observes
// a reply before the driver ever calls Fire, onReply runs exactly
// once and a subsequent Fire for the same id is a no-op.
func TestRequestReplyWinsRace(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)
	loc.DoProcess()

	a := sup.Base()

	var replied, timedOut bool
	reqID := a.NewRequestID()
	a.pendingReqs[reqID] = pendingRequest{
		onReply:   func(Envelope) { replied = true },
		onTimeout: func() { timedOut = true },
	}
	a.timers.Arm(reqID, func(cancelled bool) {
		delete(a.pendingReqs, reqID)
		if !cancelled {
			timedOut = true
		}
	})

	resp := ErrorResponse{BaseResponse: BaseResponse{ReqID: reqID, Origin: a.Address()}}
	ok := a.HandleResponse(Envelope{Payload: nil}, resp)
	require.True(t, ok)
	require.True(t, replied)
	require.False(t, timedOut)

	a.timers.Fire(reqID)
	require.False(t, timedOut, "Fire after the reply already resolved the request must be a no-op")
}

// TestRequestTimeoutWinsRace verifies the mirror case: the driver's
// Fire resolves the request first, and a reply arriving afterward is
// ignored (HandleResponse reports it found nothing pending).
func TestRequestTimeoutWinsRace(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)
	loc.DoProcess()

	a := sup.Base()

	var replied, timedOut bool
	reqID := a.NewRequestID()
	a.pendingReqs[reqID] = pendingRequest{
		onReply:   func(Envelope) { replied = true },
		onTimeout: func() { timedOut = true },
	}
	a.timers.Arm(reqID, func(cancelled bool) {
		delete(a.pendingReqs, reqID)
		if !cancelled {
			timedOut = true
		}
	})

	a.timers.Fire(reqID)
	require.True(t, timedOut)

	resp := ErrorResponse{BaseResponse: BaseResponse{ReqID: reqID, Origin: a.Address()}}
	ok := a.HandleResponse(Envelope{Payload: nil}, resp)
	require.False(t, ok, "a reply for an already-timed-out request must be ignored")
	require.False(t, replied)
}

// TestRequestArmsAndSends verifies ActorBase.Request both enqueues the
// payload to the destination and arms a timer under the same id.
func TestRequestArmsAndSends(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)
	loc.DoProcess()

	a := sup.Base()
	dest := loc.NewAddress()

	reqID := a.NewRequestID()
	a.Request(dest, StateRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        a.Address(),
		Target:      dest,
	}, reqID, time.Second, func(Envelope) {}, func() {})

	require.Equal(t, 1, a.timers.Len())
	require.Equal(t, 1, loc.QueueLen())
}

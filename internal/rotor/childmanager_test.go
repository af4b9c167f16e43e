package rotor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// failAtConfigureActor drives itself through DoShutdown synchronously
// from Configure, simulating a child that fails before it ever
// finishes initializing — the child manager learns about it only via
// ShutdownTriggerMsg, never InitResponseMsg.
type failAtConfigureActor struct {
	base   *ActorBase
	reason ShutdownReason
}

func (f *failAtConfigureActor) Configure(a *ActorBase) {
	f.base = a
	a.DoShutdown(f.reason)
}

func childManagerOf(t *testing.T, sup *Supervisor) *ChildManager {
	t.Helper()

	var cm *ChildManager
	withCasted(&sup.Base().pipeline, func(p *ChildManager) { cm = p })
	require.NotNil(t, cm)

	return cm
}

// TestChildInitFailureDefaultPolicyDoesNotEscalate verifies that under
// the default PolicyShutdownFailed, a child failing before it ever
// reports InitResponseMsg is removed from its supervisor's bookkeeping
// without affecting the supervisor's own state.
func TestChildInitFailureDefaultPolicyDoesNotEscalate(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	_, err = CreateActor(sup, &failAtConfigureActor{reason: Normal}).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	require.Equal(t, StateOperational, sup.Base().State())
	require.Empty(t, childManagerOf(t, sup).children)
}

// TestChildInitFailureEscalatesUnderShutdownSelfPolicy verifies that
// under PolicyShutdownSelf, a child failing before InitResponseMsg
// escalates into a full supervisor shutdown with reason
// ChildInitFailed.
func TestChildInitFailureEscalatesUnderShutdownSelfPolicy(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc, WithPolicy(PolicyShutdownSelf)).Unpack()
	require.NoError(t, err)

	_, err = CreateActor(sup, &failAtConfigureActor{reason: Normal}).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	require.Equal(t, StateShutDown, sup.Base().State())
	require.Equal(t, ChildInitFailed, sup.Base().shutdownReason)
}

// linkBlockedActor links to server during Configure and never
// completes init until that link resolves one way or another.
type linkBlockedActor struct {
	base   *ActorBase
	server Address
	result ErrorCode
}

func (c *linkBlockedActor) Configure(a *ActorBase) {
	c.base = a
	a.Link(c.server, func(code ErrorCode) { c.result = code })
}

// TestChildInitFailsViaLinkTimeoutPropagatesThroughInitResponse
// exercises the C8 "on error" branch through the InitResponseMsg
// pathway rather than failAtConfigureActor's narrower
// ShutdownTriggerMsg route: a child stuck LINKING on a link that never
// replies times out, fails its own init with the link's error code,
// and its supervisor's child manager formally shuts it down in
// response.
func TestChildInitFailsViaLinkTimeoutPropagatesThroughInitResponse(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	unreachable := loc.NewAddress()

	child, err := CreateActor(sup, &linkBlockedActor{server: unreachable}).Unpack()
	require.NoError(t, err)

	loc.DoProcess()
	require.Equal(t, StateInitializing, child.Base().State(),
		"the child must still be blocked on the unresolved link")
	require.Len(t, childManagerOf(t, sup).children, 1)

	var lc *LinkClient
	withCasted(&child.Base().pipeline, func(p *LinkClient) { lc = p })
	require.NotNil(t, lc)
	lc.onLinkTimeout(unreachable)

	loc.DoProcess()

	require.Equal(t, RequestTimeout, child.Behavior().result)
	require.Equal(t, StateOperational, sup.Base().State())
	require.Empty(t, childManagerOf(t, sup).children)
}

// TestChildInitFailsViaLinkTimeoutEscalatesUnderShutdownSelfPolicy
// verifies the same path under PolicyShutdownSelf: the supervisor
// shuts itself down rather than only the failed child.
func TestChildInitFailsViaLinkTimeoutEscalatesUnderShutdownSelfPolicy(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc, WithPolicy(PolicyShutdownSelf)).Unpack()
	require.NoError(t, err)

	unreachable := loc.NewAddress()

	child, err := CreateActor(sup, &linkBlockedActor{server: unreachable}).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	var lc *LinkClient
	withCasted(&child.Base().pipeline, func(p *LinkClient) { lc = p })
	require.NotNil(t, lc)
	lc.onLinkTimeout(unreachable)

	loc.DoProcess()

	require.Equal(t, StateShutDown, sup.Base().State())
	require.Equal(t, ChildInitFailed, sup.Base().shutdownReason)
}

// TestChildManagerReportsUnknownServiceForUnknownAddress verifies
// onStateRequest replies with UnknownService for an address it has no
// record of.
func TestChildManagerReportsUnknownServiceForUnknownAddress(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	requester := loc.NewAddress()
	reqID := newRequestID()

	cm := childManagerOf(t, sup)
	cm.onStateRequest(Envelope{}, StateRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        requester,
		Target:      loc.NewAddress(),
	})

	env, ok := loc.dequeue()
	require.True(t, ok)
	resp, ok := env.Payload.(ErrorResponse)
	require.True(t, ok)
	require.Equal(t, UnknownService, resp.Code)
}

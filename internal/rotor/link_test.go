package rotor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type linkClientActor struct {
	base     *ActorBase
	server   Address
	result   ErrorCode
	unlinked bool
	resolved bool
}

func (c *linkClientActor) Configure(a *ActorBase) {
	c.base = a
}

func (c *linkClientActor) OnStart() {
	c.base.Link(c.server, func(code ErrorCode) {
		c.resolved = true
		c.result = code
		if code == Success {
			c.base.OnUnlink(c.server, func() { c.unlinked = true })
		}
	})
}

// TestLinkSucceedsAgainstOperationalServer verifies a link request
// against a not-yet-shutting-down server resolves Success and the
// client observes it.
func TestLinkSucceedsAgainstOperationalServer(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	server, err := CreateActor(sup, &noopActor{}).Unpack()
	require.NoError(t, err)

	client := &linkClientActor{server: server.Address()}
	_, err = CreateActor(sup, client).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	require.True(t, client.resolved)
	require.Equal(t, Success, client.result)
}

// TestLinkRequestRacingShutdownFailsFast verifies a link request
// arriving while the server is already SHUTTING_DOWN is refused
// immediately with ActorNotLinkable rather than being queued behind
// the shutdown. Shutdown itself runs synchronously to completion in
// this runtime (absent a held resource guard), so the race is
// exercised directly against the LinkServer plugin rather than by
// timing two DoProcess drains against each other.
func TestLinkRequestRacingShutdownFailsFast(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	server, err := CreateActor(sup, &noopActor{}).Unpack()
	require.NoError(t, err)

	loc.DoProcess()

	var ls *LinkServer
	withCasted(&server.Base().pipeline, func(p *LinkServer) { ls = p })
	require.NotNil(t, ls)

	server.Base().state = StateShuttingDown

	clientAddr := loc.NewAddress()
	reqID := newRequestID()
	ls.onLinkRequest(Envelope{}, LinkRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        clientAddr,
	})

	env, ok := loc.dequeue()
	require.True(t, ok)
	resp, ok := env.Payload.(LinkResponseMsg)
	require.True(t, ok)
	require.Equal(t, ActorNotLinkable, resp.Code)
}

// TestLinkServerNotifiesClientsOnShutdown verifies a server shutting
// down after granting a link notifies the client, which observes the
// unlink callback fire.
func TestLinkServerNotifiesClientsOnShutdown(t *testing.T) {
	t.Parallel()

	loc := NewLocality("test")
	sup, err := CreateSupervisor(loc).Unpack()
	require.NoError(t, err)

	server, err := CreateActor(sup, &noopActor{}).Unpack()
	require.NoError(t, err)

	client := &linkClientActor{server: server.Address()}
	_, err = CreateActor(sup, client).Unpack()
	require.NoError(t, err)

	loc.DoProcess()
	require.Equal(t, Success, client.result)
	require.False(t, client.unlinked)

	server.Base().DoShutdown(Normal)
	loc.DoProcess()

	require.True(t, client.unlinked)
}

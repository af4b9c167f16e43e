package rotor

import "context"

// LinkRequestMsg asks the server at the destination address to accept
// a link from From.
type LinkRequestMsg struct {
	BaseRequest
	From Address
}

// MessageType implements Message.
func (LinkRequestMsg) MessageType() string { return "rotor.LinkRequest" }

// LinkResponseMsg answers a LinkRequestMsg. Code is Success,
// AlreadyLinked, or ActorNotLinkable (the server is shutting down and
// racing a new link request loses, fast, rather than being queued).
type LinkResponseMsg struct {
	BaseResponse
	Code ErrorCode
}

// MessageType implements Message.
func (LinkResponseMsg) MessageType() string { return "rotor.LinkResponse" }

// UnlinkRequestMsg asks the server to drop a previously granted link
// from From.
type UnlinkRequestMsg struct {
	BaseMessage
	From Address
}

// MessageType implements Message.
func (UnlinkRequestMsg) MessageType() string { return "rotor.UnlinkRequest" }

// UnlinkNotifyMsg is sent by a server to every linked client as part
// of its own shutdown, so clients holding the link do not have to
// poll for it to learn the server is going away, and by a client to
// every server it holds a link to as part of the client's shutdown.
// It is handled by the receiving actor's LinkClient, which drops its
// record for Origin; LinkServer does not subscribe to it, so a
// server's client set is not updated by it.
type UnlinkNotifyMsg struct {
	BaseMessage
	Origin Address
}

// MessageType implements Message.
func (UnlinkNotifyMsg) MessageType() string { return "rotor.UnlinkNotify" }

// LinkServer is the server-side half of a link (component C9). It
// tracks which clients currently hold a link and refuses new ones
// once the actor has begun shutting down — a link request racing a
// shutdown always loses, immediately, rather than being queued behind
// it.
type LinkServer struct {
	pluginBase
	clients map[Address]bool
}

// Identity implements Plugin.
func (p *LinkServer) Identity() PluginIdentity { return "link-server" }

func (p *LinkServer) Activate(a *ActorBase) {
	p.pluginBase.Activate(a)
	p.clients = make(map[Address]bool)
	p.setReaction(ReactShutdown)

	Subscribe[LinkRequestMsg](a, a.address, p.onLinkRequest)
	Subscribe[UnlinkRequestMsg](a, a.address, p.onUnlinkRequest)
}

func (p *LinkServer) onLinkRequest(_ Envelope, msg LinkRequestMsg) {
	reply := func(code ErrorCode) {
		p.actor.Send(msg.From, LinkResponseMsg{
			BaseResponse: BaseResponse{ReqID: msg.ReqID, Origin: p.actor.address},
			Code:         code,
		})
	}

	if p.actor.state >= StateShuttingDown {
		reply(ActorNotLinkable)
		return
	}
	if p.clients[msg.From] {
		reply(AlreadyLinked)
		return
	}

	p.clients[msg.From] = true
	reply(Success)
}

func (p *LinkServer) onUnlinkRequest(_ Envelope, msg UnlinkRequestMsg) {
	delete(p.clients, msg.From)
}

// HandleShutdown notifies every linked client that this server is
// going away, then clears its own client set.
func (p *LinkServer) HandleShutdown(*ShutdownRequest) bool {
	for addr := range p.clients {
		p.actor.Send(addr, UnlinkNotifyMsg{Origin: p.actor.address})
	}
	p.clients = make(map[Address]bool)
	return true
}

// linkState is a link record's progress from the client's point of
// view, mirroring the server-side refusal states in reverse.
type linkState int

const (
	linkStateLinking linkState = iota
	linkStateOperational
)

// serverRecord is one outstanding or established link this actor, as
// client, holds to a server address.
type serverRecord struct {
	state    linkState
	reqID    RequestID
	onResult func(ErrorCode)
}

// LinkClient is the client-side half of a link (component C9). A
// behavior initiates a link via ActorBase.Link and, optionally,
// registers interest in losing it via ActorBase.OnUnlink.
//
// While any record is linkStateLinking, HandleInit stalls the forward
// walk — an actor never reaches OPERATIONAL with an unresolved link
// still pending. HandleShutdown notifies every remaining server that
// this actor is going away and releases every record without stalling
// the reverse walk on them.
type LinkClient struct {
	pluginBase
	servers  map[Address]*serverRecord
	onUnlink map[Address]func()
}

// Identity implements Plugin.
func (p *LinkClient) Identity() PluginIdentity { return "link-client" }

func (p *LinkClient) Activate(a *ActorBase) {
	p.pluginBase.Activate(a)
	p.servers = make(map[Address]*serverRecord)
	p.onUnlink = make(map[Address]func())
	p.setReaction(ReactInit)
	p.setReaction(ReactShutdown)

	Subscribe[LinkResponseMsg](a, a.address, func(env Envelope, msg LinkResponseMsg) {
		a.HandleResponse(env, msg)
	})
	Subscribe[UnlinkNotifyMsg](a, a.address, p.onUnlinkNotify)
}

// HandleInit stalls the forward walk while any link this actor
// initiated is still linkStateLinking.
func (p *LinkClient) HandleInit(*InitRequest) bool {
	for _, rec := range p.servers {
		if rec.state == linkStateLinking {
			return false
		}
	}
	return true
}

// HandleShutdown notifies every server this actor still holds a link
// to that the link is going away, then drops every record. It never
// stalls: an in-flight link response arriving afterward finds no
// matching record and is ignored.
func (p *LinkClient) HandleShutdown(*ShutdownRequest) bool {
	for server := range p.servers {
		p.actor.Send(server, UnlinkNotifyMsg{Origin: p.actor.address})
	}
	p.servers = make(map[Address]*serverRecord)
	p.onUnlink = make(map[Address]func())
	return true
}

// link arms a timer for the outgoing LinkRequestMsg using the actor's
// own init timeout, so a server that never replies does not leave this
// actor stuck linkStateLinking forever.
func (p *LinkClient) link(a *ActorBase, server Address, onResult func(ErrorCode)) {
	reqID := a.NewRequestID()
	rec := &serverRecord{state: linkStateLinking, reqID: reqID, onResult: onResult}
	p.servers[server] = rec

	a.Request(server, LinkRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        a.address,
	}, reqID, a.cfg.InitTimeout,
		func(env Envelope) {
			msg, ok := env.Payload.(LinkResponseMsg)
			if !ok {
				return
			}
			p.onLinkReply(server, msg.Code)
		},
		func() { p.onLinkTimeout(server) },
	)
}

func (p *LinkClient) unlink(a *ActorBase, server Address) {
	delete(p.servers, server)
	delete(p.onUnlink, server)
	a.Send(server, UnlinkRequestMsg{From: a.address})
}

// onLinkReply resolves a pending link: Success marks the record
// operational, anything else fails it via failLink.
func (p *LinkClient) onLinkReply(server Address, code ErrorCode) {
	rec, ok := p.servers[server]
	if !ok {
		return
	}

	if code == Success {
		rec.state = linkStateOperational
		if rec.onResult != nil {
			rec.onResult(Success)
		}
		p.actor.InitContinue()
		return
	}

	p.failLink(server, rec, code)
}

// onLinkTimeout reacts to a server never answering a LinkRequestMsg
// within the armed timeout.
func (p *LinkClient) onLinkTimeout(server Address) {
	rec, ok := p.servers[server]
	if !ok || rec.state != linkStateLinking {
		return
	}

	log.WarnS(context.Background(), "link request timed out", nil,
		"actor_id", p.actor.id, "server", server.String())

	p.failLink(server, rec, RequestTimeout)
}

// failLink drops rec, reports code to its caller, and unsticks
// whatever this actor was doing: fail its own pending init request
// (carrying the same code the link itself failed with) if the link
// was blocking it, nudge the reverse walk if shutting down
// concurrently, or simply re-attempt init_continue so a stall this
// record was the last cause of clears.
func (p *LinkClient) failLink(server Address, rec *serverRecord, code ErrorCode) {
	delete(p.servers, server)
	if rec.onResult != nil {
		rec.onResult(code)
	}

	switch {
	case p.actor.initRequest != nil:
		p.actor.failInit(code)
	case p.actor.state == StateShuttingDown:
		p.actor.ShutdownContinue()
	default:
		p.actor.InitContinue()
	}
}

func (p *LinkClient) onUnlinkNotify(_ Envelope, msg UnlinkNotifyMsg) {
	delete(p.servers, msg.Origin)

	if cb, ok := p.onUnlink[msg.Origin]; ok {
		delete(p.onUnlink, msg.Origin)
		cb()
	}
}

// Link asks the actor at server to accept a link from a, invoking
// onResult once the server replies (Success, AlreadyLinked, or
// ActorNotLinkable), or with RequestTimeout if no reply arrives within
// the actor's init timeout.
func (a *ActorBase) Link(server Address, onResult func(ErrorCode)) {
	withCasted(&a.pipeline, func(lc *LinkClient) { lc.link(a, server, onResult) })
}

// Unlink drops a previously granted link.
func (a *ActorBase) Unlink(server Address) {
	withCasted(&a.pipeline, func(lc *LinkClient) { lc.unlink(a, server) })
}

// OnUnlink registers a callback invoked if server notifies a that the
// link has been dropped (typically because server is shutting down).
func (a *ActorBase) OnUnlink(server Address, cb func()) {
	withCasted(&a.pipeline, func(lc *LinkClient) { lc.onUnlink[server] = cb })
}

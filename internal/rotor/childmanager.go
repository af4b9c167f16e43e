package rotor

import "context"

// childPhase is the supervisor-local view of a child's progress,
// tracked independently of the child's own State so the child manager
// never reads a field owned by a different locality's goroutine — it
// only ever learns about a child's progress from messages the child
// itself sent.
type childPhase int

const (
	childAwaitingInit childPhase = iota
	childInitialized
	childOperational
	childShuttingDown
	childShutDown
)

// childRecord is the child manager's bookkeeping entry for one child,
// kept in actors_map (here: the children slice plus the two index
// maps below).
type childRecord struct {
	id        string
	addr      Address
	startAddr Address
	phase     childPhase

	initReqID      RequestID
	hasInitReq     bool
	shutdownReqID  RequestID
	hasShutdownReq bool
}

// ChildManager is the supervisor-only plugin (component C8) owning
// actors_map: the insertion-ordered record of every child this
// supervisor created, their init/shutdown bookkeeping, and the
// cascade that shuts every remaining child down before the supervisor
// itself can reach SHUT_DOWN.
//
// Children are iterated in creation order throughout — when
// cascading shutdown_request_t and when releasing synchronized starts —
// mirroring
// the original implementation's actors_map, which is an ordered map
// rather than a hash map.
type ChildManager struct {
	pluginBase

	children []*childRecord
	byAddr   map[Address]*childRecord
	byReqID  map[RequestID]*childRecord
}

// Identity implements Plugin.
func (p *ChildManager) Identity() PluginIdentity { return "child-manager" }

func (p *ChildManager) Activate(a *ActorBase) {
	p.pluginBase.Activate(a)
	p.setReaction(ReactShutdown)

	p.byAddr = make(map[Address]*childRecord)
	p.byReqID = make(map[RequestID]*childRecord)

	Subscribe[InitResponseMsg](a, a.address, func(env Envelope, msg InitResponseMsg) {
		a.HandleResponse(env, msg)
	})
	Subscribe[ShutdownTriggerMsg](a, a.address, p.onShutdownTrigger)
	Subscribe[ShutdownResponseMsg](a, a.address, p.onShutdownResponse)
	Subscribe[StateRequestMsg](a, a.address, p.onStateRequest)
}

// register creates the bookkeeping entry for a newly constructed
// child and sends it its InitializeActorRequestMsg through Request, so
// child.cfg.InitTimeout is actually enforced: a child that never
// replies (hung in its own forward walk) is escalated exactly like one
// that replies with a failure code, via onInitTimeout/onInitFailed.
func (p *ChildManager) register(child *ActorBase) {
	rec := &childRecord{
		id:        child.id,
		addr:      child.address,
		startAddr: child.StartAddress(),
		phase:     childAwaitingInit,
	}
	p.children = append(p.children, rec)
	p.byAddr[child.address] = rec

	reqID := p.actor.NewRequestID()
	rec.initReqID = reqID
	rec.hasInitReq = true
	p.byReqID[reqID] = rec

	log.DebugS(context.Background(), "child registered",
		"supervisor", p.actor.id, "child", child.id)

	p.actor.Request(child.address, InitializeActorRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        p.actor.address,
		Timeout:     child.cfg.InitTimeout,
	}, reqID, child.cfg.InitTimeout,
		func(env Envelope) {
			msg, ok := env.Payload.(InitResponseMsg)
			if !ok {
				return
			}
			p.onInitReply(rec, msg.Code)
		},
		func() { p.onInitTimeout(rec) },
	)
}

// onInitReply advances rec past its pending init request, whether the
// child reported success or a permanent failure (e.g. a link it was
// blocking on that will never be granted).
func (p *ChildManager) onInitReply(rec *childRecord, code ErrorCode) {
	if _, ok := p.byReqID[rec.initReqID]; !ok {
		return
	}
	delete(p.byReqID, rec.initReqID)
	rec.hasInitReq = false

	if code != Success {
		p.onInitFailed(rec, code)
		return
	}

	rec.phase = childInitialized

	if !p.actor.cfg.SynchronizeStart || p.actor.state == StateOperational {
		p.startChild(rec)
	}
}

// onInitTimeout reacts to a child never answering its
// InitializeActorRequestMsg within child.cfg.InitTimeout — a hung
// forward walk is treated identically to an explicit init failure.
func (p *ChildManager) onInitTimeout(rec *childRecord) {
	if _, ok := p.byReqID[rec.initReqID]; !ok {
		return
	}
	delete(p.byReqID, rec.initReqID)
	rec.hasInitReq = false

	log.WarnS(context.Background(), "child init request timed out", nil,
		"supervisor", p.actor.id, "child", rec.id)

	p.onInitFailed(rec, RequestTimeout)
}

// onInitFailed is the spec's C8 "on error" branch: if this supervisor
// has not yet begun shutting down and is configured to shut itself
// down on a child failure, it escalates (this is not limited to its own
// INITIALIZING state, since its init walk does not wait for its
// children); otherwise the still-reachable child is
// formally asked to shut down via the normal shutdown_request_t
// protocol rather than being torn out of actors_map directly (unlike
// the wasAwaitingInit case in onShutdownTrigger, the child never
// finished its own init walk abnormally here — it is still alive and
// subscribed, and must be told, not merely dropped).
func (p *ChildManager) onInitFailed(rec *childRecord, code ErrorCode) {
	log.WarnS(context.Background(), "child failed to initialize", nil,
		"supervisor", p.actor.id, "child", rec.id, "code", code.String())

	if p.actor.cfg.Policy == PolicyShutdownSelf && p.actor.state < StateShuttingDown {
		p.actor.DoShutdown(ChildInitFailed)
		return
	}

	rec.phase = childShuttingDown
	if !rec.hasShutdownReq {
		p.sendShutdownRequest(rec, ChildInitFailed)
	}

	if p.actor.state == StateShuttingDown {
		p.actor.ShutdownContinue()
	}
}

// startChild sends the child its start trigger.
func (p *ChildManager) startChild(rec *childRecord) {
	p.actor.Send(rec.startAddr, StartActorRequestMsg{})
	rec.phase = childOperational
}

// onSupervisorStarted is invoked by ActorBase.markOperational once
// this supervisor itself becomes OPERATIONAL. It releases any children
// that finished initializing while synchronize_start was holding them
// back.
func (p *ChildManager) onSupervisorStarted() {
	if !p.actor.cfg.SynchronizeStart {
		return
	}
	for _, rec := range p.children {
		if rec.phase == childInitialized {
			p.startChild(rec)
		}
	}
}

// onShutdownTrigger reacts to a child announcing (via DoShutdown) that
// it has begun shutting down, whether that was self-initiated or
// already part of this supervisor's own cascade.
//
// A child that was still childAwaitingInit has, by construction,
// already run its own reverse plugin walk to completion synchronously
// inside that DoShutdown call (it never got far enough to hold a
// formal shutdown conversation with this supervisor), so its
// ShutdownRequestMsg subscription is already gone — sending it one
// would go unanswered and leave the record dangling forever. Such a
// child is removed directly instead. A child that had already reached
// childInitialized or later is still reachable, so the normal
// request/response protocol is used.
func (p *ChildManager) onShutdownTrigger(_ Envelope, msg ShutdownTriggerMsg) {
	rec, ok := p.byAddr[msg.Addr]
	if !ok || rec.phase == childShutDown {
		return
	}

	wasAwaitingInit := rec.phase == childAwaitingInit

	if wasAwaitingInit {
		if rec.hasShutdownReq {
			delete(p.byReqID, rec.shutdownReqID)
		}
		if rec.hasInitReq {
			delete(p.byReqID, rec.initReqID)
		}
		rec.phase = childShutDown
		p.removeChild(rec)
	} else {
		if !rec.hasShutdownReq {
			p.sendShutdownRequest(rec, msg.Reason)
		}
		rec.phase = childShuttingDown
	}

	if wasAwaitingInit && p.actor.cfg.Policy == PolicyShutdownSelf &&
		p.actor.state < StateShuttingDown {

		log.WarnS(context.Background(),
			"child init failure escalated to supervisor shutdown", nil,
			"supervisor", p.actor.id, "child", msg.Addr.String())

		p.actor.DoShutdown(ChildInitFailed)
	} else if p.actor.state == StateShuttingDown {
		p.actor.ShutdownContinue()
	}
}

func (p *ChildManager) sendShutdownRequest(rec *childRecord, reason ShutdownReason) {
	reqID := p.actor.NewRequestID()
	rec.shutdownReqID = reqID
	rec.hasShutdownReq = true
	p.byReqID[reqID] = rec

	p.actor.Send(rec.addr, ShutdownRequestMsg{
		BaseRequest: BaseRequest{ReqID: reqID},
		From:        p.actor.address,
		Reason:      reason,
		Timeout:     p.actor.cfg.ShutdownTimeout,
	})
}

// onShutdownResponse finalizes a child's departure: it is dropped from
// actors_map, and if this supervisor is itself shutting down, the
// reverse plugin walk is re-attempted, since HandleShutdown may now be
// able to report every child is down.
func (p *ChildManager) onShutdownResponse(_ Envelope, msg ShutdownResponseMsg) {
	rec, ok := p.byReqID[msg.ReqID]
	if !ok {
		return
	}
	delete(p.byReqID, msg.ReqID)
	rec.phase = childShutDown
	p.removeChild(rec)

	if p.actor.state == StateShuttingDown {
		p.actor.ShutdownContinue()
	}
}

// purgeChildSubscriptions drains every subscription point the
// departing child registered directly against this supervisor's own
// locality (e.g. a foreign subscription the child routed through the
// supervisor's address space). In the ordinary protocol the child's
// own lifetime plugin already unsubscribed everything during its
// reverse walk before replying, so this is usually a no-op; it exists
// as a belt-and-suspenders sweep so a child record is never declared
// removed while a stale point owned by it is still reachable.
func (p *ChildManager) purgeChildSubscriptions(rec *childRecord) {
	for _, point := range p.actor.locality.addrMap.pointsForOwner(rec.id) {
		p.actor.locality.addrMap.unsubscribe(point)
	}
}

func (p *ChildManager) removeChild(rec *childRecord) {
	if rec.hasInitReq {
		p.actor.timers.CancelNotify(rec.initReqID)
		rec.hasInitReq = false
	}

	p.purgeChildSubscriptions(rec)

	delete(p.byAddr, rec.addr)
	for i, other := range p.children {
		if other == rec {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

// onStateRequest answers a StateRequestMsg about one of this
// supervisor's children.
func (p *ChildManager) onStateRequest(_ Envelope, msg StateRequestMsg) {
	rec, ok := p.byAddr[msg.Target]
	if !ok {
		p.actor.ReplyWithError(msg.From, msg.ReqID, UnknownService)
		return
	}

	p.actor.Send(msg.From, StateResponseMsg{
		BaseResponse: BaseResponse{ReqID: msg.ReqID, Origin: p.actor.address},
		State:        rec.phase.toState(),
	})
}

// toState maps the supervisor-local phase to the closest externally
// meaningful State, for reporting purposes only.
func (ph childPhase) toState() State {
	switch ph {
	case childAwaitingInit:
		return StateInitializing
	case childInitialized:
		return StateInitialized
	case childOperational:
		return StateOperational
	case childShuttingDown:
		return StateShuttingDown
	default:
		return StateShutDown
	}
}

// HandleShutdown cascades a ShutdownRequestMsg (reason
// SupervisorShutdown) to every child not already shutting down, in
// creation order, then stalls until actors_map is empty.
func (p *ChildManager) HandleShutdown(*ShutdownRequest) bool {
	if len(p.children) == 0 {
		return true
	}

	for _, rec := range p.children {
		if rec.phase == childShuttingDown || rec.phase == childShutDown {
			continue
		}
		if !rec.hasShutdownReq {
			p.sendShutdownRequest(rec, SupervisorShutdown)
		}
		rec.phase = childShuttingDown
	}

	return false
}

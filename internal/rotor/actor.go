package rotor

import (
	"context"
	"time"
)

// State is one of the six points in an actor's lifecycle. States are
// ordered; the ordering is used by the child manager (e.g. "state >
// INITIALIZING") and is monotone along any single actor's life except
// for the documented INITIALIZING -> SHUTTING_DOWN abort path.
type State int

const (
	StateNew State = iota
	StateInitializing
	StateInitialized
	StateOperational
	StateShuttingDown
	StateShutDown
)

// String renders the state for logging and test assertions.
func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateInitializing:
		return "INITIALIZING"
	case StateInitialized:
		return "INITIALIZED"
	case StateOperational:
		return "OPERATIONAL"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateShutDown:
		return "SHUT_DOWN"
	default:
		return "UNKNOWN"
	}
}

// InitRequest records the externally routed initialize_actor_t this
// actor is INITIALIZING in response to. An actor holds one from the
// arrival of that request until initFinish or failInit replies to and
// releases it; a root supervisor, which has no parent to request
// anything of it, never holds one.
type InitRequest struct {
	ReqID   RequestID
	From    Address
	Timeout time.Duration
}

// ShutdownRequest is InitRequest's mirror for the shutdown side. An
// actor holds one exactly while SHUTTING_DOWN in response to a
// formally routed shutdown request; a self-initiated do_shutdown on a
// root supervisor never populates this field.
type ShutdownRequest struct {
	ReqID   RequestID
	From    Address
	Reason  ShutdownReason
	Timeout time.Duration
}

// pendingRequest is the bookkeeping ActorBase.Request arms for an
// outgoing request: exactly one of onReply/onTimeout fires, whichever
// the TimerRegistry's race arbitration resolves first.
type pendingRequest struct {
	onReply   func(Envelope)
	onTimeout func()
}

// Actor is implemented by user behaviors. Configure is called once,
// synchronously, during CreateActor, before the
// plugin pipeline's forward walk begins — it is where a behavior
// subscribes to the messages it cares about and stashes the ActorBase
// pointer it needs to Send/Request/DoShutdown later.
type Actor interface {
	Configure(a *ActorBase)
}

// Starter is an optional interface a behavior can implement to be
// notified once the actor reaches OPERATIONAL (see the Starter
// plugin).
type Starter interface {
	OnStart()
}

// ActorBase is the concrete lifecycle state machine shared by every
// actor, supervisors included (a Supervisor embeds one). It owns the
// plugin pipeline, the per-actor subscription container (via the
// lifetime plugin), the timer registry, and the resource guard that
// lets user code hold shutdown open across external I/O.
type ActorBase struct {
	id       string
	address  Address
	locality *Locality

	supervisor     *Supervisor
	supervisorAddr Address

	state          State
	cfg            ActorConfig
	pipeline       pipeline
	initRequest    *InitRequest
	shutdownReq    *ShutdownRequest
	shutdownReason ShutdownReason

	timers        *TimerRegistry
	resourceCount int

	pendingReqs map[RequestID]pendingRequest

	lifetime     *lifetimePlugin
	lifecycle    *lifecyclePlugin
	foreigners   *foreignersSupportPlugin
	starter      *starterPlugin
	childManager *ChildManager

	behavior Actor
}

// ID returns the actor's identifier (for logging/debugging only; an
// address, not an ID, is the thing peers actually route to).
func (a *ActorBase) ID() string { return a.id }

// Address returns this actor's own primary address.
func (a *ActorBase) Address() Address { return a.address }

// Locality returns the locality this actor's own address is bound to.
func (a *ActorBase) Locality() *Locality { return a.locality }

// State returns the actor's current lifecycle state.
func (a *ActorBase) State() State { return a.state }

// SupervisorAddress returns the address of the supervisor that
// created this actor, or the zero Address for a root supervisor.
func (a *ActorBase) SupervisorAddress() Address { return a.supervisorAddr }

// newActorBase constructs (but does not activate) an actor's base
// state. sup is nil only for a root supervisor's own base. isSupervisor
// additionally installs a ChildManager, ahead of link-client/
// link-server in the canonical pipeline order.
func newActorBase(id string, sup *Supervisor, supervisorAddr Address,
	loc *Locality, cfg ActorConfig, behavior Actor, isSupervisor bool,
) *ActorBase {
	a := &ActorBase{
		id:             id,
		locality:       loc,
		supervisor:     sup,
		supervisorAddr: supervisorAddr,
		state:          StateNew,
		cfg:            cfg,
		timers:         NewTimerRegistry(),
		pendingReqs:    make(map[RequestID]pendingRequest),
		behavior:       behavior,
	}
	a.address = loc.NewAddress()

	core := &corePlugin{}
	a.lifecycle = &lifecyclePlugin{}
	a.lifetime = &lifetimePlugin{}
	a.foreigners = &foreignersSupportPlugin{}
	// The start address is minted here rather than in Activate, so a
	// supervisor registering this actor before activation records the
	// real address its start trigger must go to.
	a.starter = &starterPlugin{startAddr: loc.NewAddress()}

	plugins := []Plugin{core, a.lifecycle, a.lifetime, a.foreigners}

	if isSupervisor {
		a.childManager = &ChildManager{}
		plugins = append(plugins, a.childManager)
	}

	plugins = append(plugins, &LinkClient{}, &LinkServer{})
	plugins = append(plugins, cfg.ExtraPlugins...)
	plugins = append(plugins, a.starter)

	a.pipeline = newPipeline(plugins...)

	return a
}

// activate walks the pipeline forward installing actor
// back-references, lets the user behavior configure its subscriptions,
// transitions NEW -> INITIALIZING, and makes the first InitContinue
// attempt.
func (a *ActorBase) activate() {
	a.pipeline.activateAll(a)

	if a.behavior != nil {
		a.behavior.Configure(a)
	}

	// Configure may itself have driven the actor through a full,
	// synchronous DoShutdown (an immediate configuration-time failure).
	// In that case the reverse walk already ran and state is at or past
	// SHUTTING_DOWN; forcing StateInitializing here would clobber that
	// and re-run the forward walk against an already-deactivated
	// pipeline.
	if a.state != StateNew {
		return
	}

	a.state = StateInitializing

	log.DebugS(context.Background(), "actor initializing",
		"actor_id", a.id, "address", a.address.String())

	a.InitContinue()
}

// InitContinue re-attempts the forward plugin walk. It is idempotent
// and safe to call whenever an event a plugin was stalling on arrives
// (e.g. an InitializeActorRequest, a link response, a resolved
// resource guard).
func (a *ActorBase) InitContinue() {
	if a.state != StateInitializing {
		return
	}
	if a.resourceCount > 0 {
		return
	}
	if !a.pipeline.initContinue(a.initRequest) {
		return
	}
	a.initFinish()
}

// initFinish replies to the pending init_request (if any), releases
// it, and sets StateInitialized.
func (a *ActorBase) initFinish() {
	if a.initRequest != nil {
		resp := InitResponseMsg{
			BaseResponse: BaseResponse{ReqID: a.initRequest.ReqID, Origin: a.address},
			Code:         Success,
		}
		a.Send(a.initRequest.From, resp)
		a.initRequest = nil
	}

	a.state = StateInitialized

	log.DebugS(context.Background(), "actor initialized", "actor_id", a.id)

	// A root supervisor has no parent child manager to send it a start
	// trigger, so it starts itself as soon as it is initialized.
	if a.supervisorAddr.IsZero() {
		a.Send(a.StartAddress(), StartActorRequestMsg{})
	}
}

// failInit replies to the pending init_request with a non-success code
// instead of letting the forward walk complete normally, and releases
// it so initFinish's own reply never fires a second time. A plugin
// calls this when it detects, while still blocking the init walk, that
// whatever it is waiting on can never resolve (e.g. a link request
// that just failed) — the actor is left at StateInitializing for its
// supervisor's child manager to act on once the InitResponseMsg
// arrives, typically by shutting the child down.
func (a *ActorBase) failInit(code ErrorCode) {
	if a.initRequest == nil {
		return
	}
	resp := InitResponseMsg{
		BaseResponse: BaseResponse{ReqID: a.initRequest.ReqID, Origin: a.address},
		Code:         code,
	}
	a.Send(a.initRequest.From, resp)
	a.initRequest = nil
}

// markOperational transitions INITIALIZED -> OPERATIONAL. Called by
// the starter plugin once the start trigger is delivered.
func (a *ActorBase) markOperational() {
	if a.state != StateInitialized {
		return
	}
	a.state = StateOperational

	log.DebugS(context.Background(), "actor operational", "actor_id", a.id)

	withCasted(&a.pipeline, func(cm *ChildManager) { cm.onSupervisorStarted() })

	if starter, ok := a.behavior.(Starter); ok {
		starter.OnStart()
	}
}

// DoShutdown idempotently initiates shutdown: if state is already
// SHUTTING_DOWN or SHUT_DOWN, this is a no-op. Otherwise it begins
// shutdown locally and, if this actor has a supervisor, emits a
// shutdown_trigger_t so the supervisor's child manager can track and
// cascade it.
func (a *ActorBase) DoShutdown(reason ShutdownReason) {
	if a.state >= StateShuttingDown {
		return
	}

	a.beginShutdown(reason)

	if !a.supervisorAddr.IsZero() {
		trigger := ShutdownTriggerMsg{Addr: a.address, Reason: reason}
		a.Send(a.supervisorAddr, trigger)
	}
}

// beginShutdown performs the local half of do_shutdown: it sets the
// SHUTTING_DOWN state (valid from any prior state, including
// INITIALIZING, per the abort path) and kicks off the reverse plugin
// walk.
func (a *ActorBase) beginShutdown(reason ShutdownReason) {
	a.state = StateShuttingDown
	a.shutdownReason = reason

	log.DebugS(context.Background(), "actor shutting down",
		"actor_id", a.id, "reason", reason.String())

	a.ShutdownContinue()
}

// onShutdownRequest is wired up by the lifecycle plugin to the
// actor's own address. It records the formally routed shutdown
// request (for shutdown_finish to reply to) and, if shutdown has not
// already begun locally, begins it.
func (a *ActorBase) onShutdownRequest(msg ShutdownRequestMsg) {
	a.shutdownReq = &ShutdownRequest{
		ReqID: msg.ReqID, From: msg.From, Reason: msg.Reason,
		Timeout: msg.Timeout,
	}

	if a.state < StateShuttingDown {
		a.beginShutdown(msg.Reason)
		return
	}

	a.ShutdownContinue()
}

// ShutdownContinue re-attempts the reverse plugin walk. Like
// InitContinue it is idempotent and re-callable; the resource guard
// blocks progress past shutdown_start while resourceCount > 0.
func (a *ActorBase) ShutdownContinue() {
	if a.state != StateShuttingDown {
		return
	}
	if a.resourceCount > 0 {
		return
	}
	if !a.pipeline.shutdownContinue(a.shutdownReq) {
		return
	}
	a.shutdownFinish()
}

// shutdownFinish replies to the pending shutdown_request (if any; a
// root supervisor shutting itself down inline has none), cancels any
// timers still armed (logging a warning) so the registry is empty,
// sets SHUT_DOWN, and deactivates the pipeline in reverse.
func (a *ActorBase) shutdownFinish() {
	if a.shutdownReq != nil {
		resp := ShutdownResponseMsg{
			BaseResponse: BaseResponse{ReqID: a.shutdownReq.ReqID, Origin: a.address},
			Code:         Success,
		}
		a.Send(a.shutdownReq.From, resp)
		a.shutdownReq = nil
	}

	if n := a.timers.Len(); n != 0 {
		log.WarnS(context.Background(),
			"cancelling outstanding timers at shutdown", nil,
			"actor_id", a.id, "count", n)
		a.timers.CancelAll()
	}

	a.state = StateShutDown
	a.pipeline.deactivateAll()

	log.DebugS(context.Background(), "actor shut down", "actor_id", a.id)
}

// AcquireResource increments the resource guard. While the guard is
// above zero, the lifecycle cannot advance past shutdown_start (nor,
// symmetrically, past the init walk) regardless of plugin completion.
// This is how user code holds an actor alive across external I/O.
func (a *ActorBase) AcquireResource() {
	a.resourceCount++
}

// ReleaseResource decrements the resource guard. Dropping to zero
// re-attempts whichever continuation (init or shutdown) the actor is
// currently in.
func (a *ActorBase) ReleaseResource() {
	a.resourceCount--
	if a.resourceCount > 0 {
		return
	}

	switch a.state {
	case StateInitializing:
		a.InitContinue()
	case StateShuttingDown:
		a.ShutdownContinue()
	}
}

// Send enqueues payload to addr. If addr was never produced by a
// Locality (the zero Address), the send is dropped with a log, since
// there is nowhere to enqueue it.
func (a *ActorBase) Send(addr Address, payload Message) {
	if addr.locality == nil {
		log.WarnS(context.Background(), "send to unbound address dropped",
			nil, "msg_type", payload.MessageType())
		return
	}
	addr.locality.Enqueue(Envelope{Destination: addr, Payload: payload})
}

// Request arms a timer keyed by reqID and sends payload to addr.
// Exactly one of onReply or onTimeout eventually fires: HandleResponse
// must be called by the receiving subscription handler when a
// matching response arrives, which disarms the timer and invokes
// onReply; otherwise Fire (driven by the external timer/queue driver
// out of this package's scope) invokes onTimeout.
func (a *ActorBase) Request(addr Address, payload Message, reqID RequestID,
	timeout time.Duration, onReply func(Envelope), onTimeout func(),
) {
	a.pendingReqs[reqID] = pendingRequest{onReply: onReply, onTimeout: onTimeout}
	a.timers.Arm(reqID, func(cancelled bool) {
		delete(a.pendingReqs, reqID)
		if !cancelled && onTimeout != nil {
			onTimeout()
		}
	})
	a.Send(addr, payload)
}

// NewRequestID mints a fresh request ID for use with Request.
func (a *ActorBase) NewRequestID() RequestID { return newRequestID() }

// HandleResponse looks up a pending request by resp's RequestID and,
// if still outstanding, disarms its timer and invokes its onReply
// callback with env. Reports whether a pending request was found,
// i.e. whether this response "won the race" against its timeout — a
// response for an already-timed-out (or already-replied) request
// returns false and is otherwise ignored, per the single-terminal-
// outcome guarantee.
func (a *ActorBase) HandleResponse(env Envelope, resp Response) bool {
	id := resp.GetRequestID()

	pr, ok := a.pendingReqs[id]
	if !ok {
		return false
	}
	delete(a.pendingReqs, id)
	a.timers.Disarm(id)

	if pr.onReply != nil {
		pr.onReply(env)
	}
	return true
}

// ReplyTo sends payload — expected to embed a BaseResponse carrying
// the originating RequestID — back to replyAddr.
func (a *ActorBase) ReplyTo(replyAddr Address, payload Message) {
	a.Send(replyAddr, payload)
}

// ReplyWithError sends a generic ErrorResponse carrying code back to
// replyAddr for reqID.
func (a *ActorBase) ReplyWithError(replyAddr Address, reqID RequestID, code ErrorCode) {
	a.Send(replyAddr, ErrorResponse{
		BaseResponse: BaseResponse{ReqID: reqID, Origin: a.address},
		Code:         code,
	})
}

// subscribeRaw is the untyped entry point Subscribe[M] compiles down
// to; it delegates to the lifetime plugin, which owns the actual
// subscription container and addressMap bookkeeping.
func (a *ActorBase) subscribeRaw(addr Address, t messageTypeToken, h Handler) *SubscriptionPoint {
	return a.lifetime.subscribe(a, addr, t, h)
}

// Unsubscribe drops a subscription point the actor previously created.
func (a *ActorBase) Unsubscribe(p *SubscriptionPoint) {
	a.lifetime.unsubscribeLocal(a, p)
}

// ErrorResponse is a generic response payload carrying only an error
// code, used by ReplyWithError. Init, shutdown and link responses use
// their own typed responses; the child manager's reply to a state
// request for an unknown address is sent as this one.
type ErrorResponse struct {
	BaseResponse
	Code ErrorCode
}

// MessageType implements Message.
func (ErrorResponse) MessageType() string { return "rotor.ErrorResponse" }

// lifecyclePlugin binds the actor's own address to the
// InitializeActorRequest / ShutdownRequestMsg protocol a supervisor's
// child manager drives. It is activated for every actor (root
// supervisors included, though they never receive either message from
// a parent, since they have none).
type lifecyclePlugin struct {
	pluginBase
}

// Identity implements Plugin.
func (p *lifecyclePlugin) Identity() PluginIdentity { return "lifecycle" }

func (p *lifecyclePlugin) Activate(a *ActorBase) {
	p.pluginBase.Activate(a)

	if !a.supervisorAddr.IsZero() {
		p.setReaction(ReactInit)
	}

	Subscribe[InitializeActorRequestMsg](a, a.address,
		func(_ Envelope, msg InitializeActorRequestMsg) {
			a.initRequest = &InitRequest{
				ReqID: msg.ReqID, From: msg.From, Timeout: msg.Timeout,
			}
			a.InitContinue()
		})

	Subscribe[ShutdownRequestMsg](a, a.address,
		func(_ Envelope, msg ShutdownRequestMsg) {
			a.onShutdownRequest(msg)
		})
}

// HandleInit stalls until the actor's own address has received an
// InitializeActorRequest from its supervisor (a.initRequest is set by
// the subscription above), unless this actor has no supervisor at
// all, in which case there is nothing to wait for.
func (p *lifecyclePlugin) HandleInit(*InitRequest) bool {
	if p.actor.supervisorAddr.IsZero() {
		return true
	}
	return p.actor.initRequest != nil
}

// corePlugin stands in for the address-maker, locality-binding, and
// delivery plugins from the canonical ordering: by the time any
// plugin is activated, ActorBase.activate has already minted the
// actor's address and bound its locality, so there is no remaining
// work beyond recording the identity token for completeness.
type corePlugin struct {
	pluginBase
}

func (p *corePlugin) Identity() PluginIdentity { return "core" }

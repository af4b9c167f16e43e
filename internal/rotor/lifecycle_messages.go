package rotor

import "time"

// InitializeActorRequestMsg is routed to a child's own address by its
// supervisor's child manager once the child has been created, kicking
// off the child's forward plugin walk in earnest (the lifecycle
// plugin stalls ReactInit until this arrives).
type InitializeActorRequestMsg struct {
	BaseRequest
	From    Address
	Timeout time.Duration
}

// MessageType implements Message.
func (InitializeActorRequestMsg) MessageType() string {
	return "rotor.InitializeActorRequest"
}

// InitResponseMsg is sent back to From once the child's forward walk
// either completes (Code: Success) or is abandoned because a plugin
// detected a permanent failure while still blocking the walk (e.g. a
// link that will never be granted) — see ActorBase.failInit.
type InitResponseMsg struct {
	BaseResponse
	Code ErrorCode
}

// MessageType implements Message.
func (InitResponseMsg) MessageType() string { return "rotor.InitResponse" }

// ShutdownRequestMsg is routed to an actor's own address, formally
// asking it to shut down for Reason. It may be sent by a supervisor's
// child manager cascading a shutdown, or by any peer holding the
// actor's address.
type ShutdownRequestMsg struct {
	BaseRequest
	From    Address
	Reason  ShutdownReason
	Timeout time.Duration
}

// MessageType implements Message.
func (ShutdownRequestMsg) MessageType() string { return "rotor.ShutdownRequest" }

// ShutdownResponseMsg is sent back to From once the actor reaches
// SHUT_DOWN.
type ShutdownResponseMsg struct {
	BaseResponse
	Code ErrorCode
}

// MessageType implements Message.
func (ShutdownResponseMsg) MessageType() string { return "rotor.ShutdownResponse" }

// ShutdownTriggerMsg is emitted by DoShutdown to the actor's
// supervisor, letting the child manager track and cascade the
// departure without the supervisor having to poll child state.
type ShutdownTriggerMsg struct {
	BaseMessage
	Addr   Address
	Reason ShutdownReason
}

// MessageType implements Message.
func (ShutdownTriggerMsg) MessageType() string { return "rotor.ShutdownTrigger" }

// StartActorRequestMsg is routed to a child's dedicated starter
// address by the child manager once that child is eligible to start
// (immediately, or held until synchronize_start's own trigger, per the
// supervisor's configuration).
type StartActorRequestMsg struct {
	BaseMessage
}

// MessageType implements Message.
func (StartActorRequestMsg) MessageType() string { return "rotor.StartActorRequest" }

// StateRequestMsg asks a supervisor to report the lifecycle state of
// one of its children, identified by Target. Used by tests and by
// operators inspecting a running tree.
type StateRequestMsg struct {
	BaseRequest
	From   Address
	Target Address
}

// MessageType implements Message.
func (StateRequestMsg) MessageType() string { return "rotor.StateRequest" }

// StateResponseMsg answers a StateRequestMsg.
type StateResponseMsg struct {
	BaseResponse
	State State
}

// MessageType implements Message.
func (StateResponseMsg) MessageType() string { return "rotor.StateResponse" }

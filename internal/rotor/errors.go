package rotor

import "fmt"

// ErrorCode enumerates the terminal outcomes carried inside response
// envelopes. Error codes never cross the message pathway as Go errors;
// a failure is always observable by the caller as a field on the
// response it receives (or, for configuration errors raised
// synchronously at construction, as an fn.Result wrapping one of the
// errors below).
type ErrorCode int

const (
	// Success indicates the request completed normally.
	Success ErrorCode = iota

	// Cancelled indicates the request was cancelled before it could
	// complete, e.g. because the actor holding it began shutting down.
	Cancelled

	// RequestTimeout indicates the armed timer elapsed before a reply
	// arrived.
	RequestTimeout

	// SupervisorDefined indicates a supervisor-specific policy refused
	// the operation.
	SupervisorDefined

	// AlreadyRegistered indicates a duplicate registration attempt.
	AlreadyRegistered

	// ActorMisconfigured indicates CreateActor was given an invalid
	// configuration.
	ActorMisconfigured

	// ActorNotLinkable indicates Link was attempted against an actor
	// that cannot accept new links (e.g. one already shutting down).
	ActorNotLinkable

	// AlreadyLinked indicates a link request was issued for a server
	// address the client already holds a link to.
	AlreadyLinked

	// UnknownService indicates a state_request_t (or similar lookup)
	// named an address this supervisor has no record of.
	UnknownService
)

// String renders the error code for logging and test failure messages.
func (e ErrorCode) String() string {
	switch e {
	case Success:
		return "success"
	case Cancelled:
		return "cancelled"
	case RequestTimeout:
		return "request_timeout"
	case SupervisorDefined:
		return "supervisor_defined"
	case AlreadyRegistered:
		return "already_registered"
	case ActorMisconfigured:
		return "actor_misconfigured"
	case ActorNotLinkable:
		return "actor_not_linkable"
	case AlreadyLinked:
		return "already_linked"
	case UnknownService:
		return "unknown_service"
	default:
		return fmt.Sprintf("error_code(%d)", int(e))
	}
}

// ShutdownReason enumerates why an actor's do_shutdown was triggered.
// It is propagated from the initiating do_shutdown call through the
// child manager and attached to the shutdown_trigger_t / shutdown
// request envelopes along the way.
type ShutdownReason int

const (
	// Normal indicates an ordinary, user-requested shutdown.
	Normal ShutdownReason = iota

	// SupervisorShutdown indicates the actor is being shut down because
	// its supervisor is shutting down.
	SupervisorShutdown

	// ChildDown indicates a sibling or dependency actor terminated and
	// this actor's behavior chose to shut down in response.
	ChildDown

	// ChildInitFailed indicates a child's initialization failed. It is
	// the reason of a supervisor shutdown escalated by the shutdown_self
	// policy, and the reason carried by the shutdown request a
	// supervisor sends to a failed child otherwise.
	ChildInitFailed

	// UnlinkRequested indicates a link partner asked to unlink.
	UnlinkRequested

	// LinkFailed indicates a link_request_t never received a success
	// response.
	LinkFailed

	// RequestTimeoutReason indicates an armed request timed out and the
	// actor's behavior chose to shut down in response.
	RequestTimeoutReason
)

// String renders the shutdown reason for logging.
func (r ShutdownReason) String() string {
	switch r {
	case Normal:
		return "normal"
	case SupervisorShutdown:
		return "supervisor_shutdown"
	case ChildDown:
		return "child_down"
	case ChildInitFailed:
		return "child_init_failed"
	case UnlinkRequested:
		return "unlink_requested"
	case LinkFailed:
		return "link_failed"
	case RequestTimeoutReason:
		return "request_timeout"
	default:
		return fmt.Sprintf("shutdown_reason(%d)", int(r))
	}
}

// ErrActorMisconfigured is returned (wrapped with detail) inside the
// fn.Result of CreateSupervisor, CreateActor or CreateChildSupervisor
// when an ActorOption produces an invalid configuration.
var ErrActorMisconfigured = fmt.Errorf("actor misconfigured")

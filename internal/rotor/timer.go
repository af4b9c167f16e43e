package rotor

// timerHandler is invoked when a timer resolves, either by firing
// (cancelled == false) or by explicit cancellation-with-notification
// (cancelled == true). A timer that is simply disarmed because its
// reply already arrived (the common case) does not invoke the handler
// at all — see TimerRegistry.Disarm.
type timerHandler func(cancelled bool)

type timerEntry struct {
	handler timerHandler
}

// TimerRegistry maps a RequestID to its pending timer handler and
// arbitrates between the two ways a request can resolve: a reply
// arriving (the caller calls Disarm, which silently removes the entry
// since the reply itself carries the outcome) or the timeout elapsing
// (the external event-loop driver calls Fire). Whichever happens
// first wins; the registry guarantees the loser becomes a no-op by
// always removing the entry before acting on it, so a Fire for a
// request already Disarm'd (or previously Fired) simply finds nothing
// and does nothing.
//
// The concrete timer/queue driver that decides *when* to call Fire is
// out of scope for this package (see spec section 1); TimerRegistry
// only owns the bookkeeping, not the clock.
type TimerRegistry struct {
	pending map[RequestID]timerEntry
}

// NewTimerRegistry creates an empty registry.
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{pending: make(map[RequestID]timerEntry)}
}

// Arm records a pending timer for id. It is a programmer error to Arm
// the same id twice without an intervening Disarm/Fire/CancelNotify;
// doing so silently replaces the previous handler, matching the
// "undefined behavior, documented as programmer error" release-mode
// stance the spec takes on plugin invariant violations.
func (t *TimerRegistry) Arm(id RequestID, handler timerHandler) {
	t.pending[id] = timerEntry{handler: handler}
}

// Fire is called by the event-loop driver when a previously armed
// timer elapses. If the request has already been resolved (reply
// arrived, or the timer already fired/was cancelled), this is a
// documented no-op rather than relying on the driver to guarantee it
// never double-fires.
func (t *TimerRegistry) Fire(id RequestID) {
	entry, ok := t.pending[id]
	if !ok {
		return
	}
	delete(t.pending, id)
	entry.handler(false)
}

// Disarm removes a pending timer without invoking its handler. This
// is the path taken when a reply arrives first: the reply's own
// delivery already drives the caller's continuation, so the timer
// must simply stop being armed without an additional callback.
// Reports whether a timer was actually pending.
func (t *TimerRegistry) Disarm(id RequestID) bool {
	if _, ok := t.pending[id]; !ok {
		return false
	}
	delete(t.pending, id)
	return true
}

// CancelNotify removes a pending timer and invokes its handler with
// cancelled=true. Used when the request is being abandoned for a
// reason other than a reply or a timeout (e.g. the actor holding it
// is shutting down and must unwind outstanding requests).
func (t *TimerRegistry) CancelNotify(id RequestID) bool {
	entry, ok := t.pending[id]
	if !ok {
		return false
	}
	delete(t.pending, id)
	entry.handler(true)
	return true
}

// CancelAll cancels every currently armed timer, each with its own
// CancelNotify call, so a handler that reacts by arming a replacement
// timer (unusual, but not forbidden) is not disturbed by a live
// iteration over the map it just mutated.
func (t *TimerRegistry) CancelAll() {
	ids := make([]RequestID, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	for _, id := range ids {
		t.CancelNotify(id)
	}
}

// Len reports the number of timers currently armed. The actor
// lifecycle invariant "timers_map is empty when the actor enters
// SHUT_DOWN" is asserted against this value.
func (t *TimerRegistry) Len() int {
	return len(t.pending)
}

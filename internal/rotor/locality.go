package rotor

import (
	"context"
	"sync"
)

// Locality is a single cooperative scheduler: a FIFO envelope queue
// plus the address space of everything hosted there. All addresses it
// mints and all actors registered against it share one queue and are
// driven exclusively by calls to DoProcess. Multiple localities may
// run in parallel on separate goroutines; they communicate only by
// enqueuing onto each other's queue via Enqueue, which is this type's
// sole thread-safety boundary — addrMap is touched directly only on
// behalf of actors bound to this locality (from handlers during
// DoProcess, or while such an actor is being constructed); other
// localities reach it only through control envelopes that DoProcess
// applies.
type Locality struct {
	// name identifies this locality for logging.
	name string

	mu    sync.Mutex
	queue []Envelope

	addrMap *addressMap
}

// NewLocality creates an empty locality with the given name.
func NewLocality(name string) *Locality {
	return &Locality{
		name:    name,
		addrMap: newAddressMap(),
	}
}

// Name returns this locality's identifying name.
func (l *Locality) Name() string {
	return l.name
}

// NewAddress mints a fresh address bound to this locality.
func (l *Locality) NewAddress() Address {
	return newAddress(l)
}

// Enqueue appends env to this locality's FIFO queue. Safe to call
// concurrently from any goroutine, including ones driving a different
// locality's DoProcess.
func (l *Locality) Enqueue(env Envelope) {
	l.mu.Lock()
	l.queue = append(l.queue, env)
	l.mu.Unlock()

	log.TraceS(context.Background(), "enqueued envelope",
		"locality", l.name,
		"dest", env.Destination.String(),
		"msg_type", env.Payload.MessageType())
}

func (l *Locality) dequeue() (Envelope, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return Envelope{}, false
	}

	env := l.queue[0]
	l.queue = l.queue[1:]
	return env, true
}

// QueueLen reports the number of envelopes currently queued, mostly
// useful for tests asserting a locality has fully drained.
func (l *Locality) QueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// DoProcess drains the queue until empty. Re-entrancy is expected: a
// handler invoked here may itself call Enqueue (directly, or
// indirectly via ActorBase.Send/Request), and the newly queued
// envelope is processed within the same drain, preserving strict FIFO
// per locality.
func (l *Locality) DoProcess() {
	for {
		env, ok := l.dequeue()
		if !ok {
			return
		}
		l.deliver(env)
	}
}

// deliver routes a single envelope to every subscription point
// registered for its (destination, payload type) key. The two
// internal foreign-subscription control messages are special-cased
// here rather than delivered to a handler: they mutate addrMap
// directly, which is safe because this call always happens on the
// goroutine driving this locality's own DoProcess.
func (l *Locality) deliver(env Envelope) {
	switch m := env.Payload.(type) {
	case foreignSubscribeMsg:
		l.addrMap.subscribe(m.point)
		return
	case foreignUnsubscribeMsg:
		l.addrMap.unsubscribe(m.point)
		return
	}

	points := l.addrMap.lookup(env.Destination, typeToken(env.Payload))
	for _, p := range points {
		p.Handler(env)
	}
}

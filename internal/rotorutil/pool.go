// Package rotorutil holds composition helpers built on top of
// internal/rotor that are not themselves part of the core runtime —
// the rotor equivalent of the teacher's actorutil package.
package rotorutil

import (
	"fmt"
	"sync/atomic"

	"github.com/roasbeef/rotorgo/internal/rotor"
)

// Pool distributes messages across a fixed set of same-typed children
// of one supervisor using round-robin selection, adapting the
// teacher's actorutil.Pool to rotor's address/envelope model: where
// the teacher's pool holds ActorRef handles it can Ask/Tell directly,
// a rotor Pool holds Ref handles and only uses their addresses, since
// Send/Request both live on whichever ActorBase is doing the sending.
type Pool[T rotor.Actor] struct {
	id   string
	refs []rotor.Ref[T]
	next atomic.Uint64
}

// PoolConfig configures NewPool.
type PoolConfig[T rotor.Actor] struct {
	// ID identifies the pool. It is returned by Pool.ID and used as a
	// prefix in NewPool's error messages.
	ID string

	// Size is the number of children to create.
	Size int

	// Factory creates the behavior for pool member idx.
	Factory func(idx int) T

	// Opts are applied to every child's ActorConfig.
	Opts []rotor.ActorOption
}

// NewPool creates Size children of sup via rotor.CreateActor, one per
// cfg.Factory(idx). Returns the first configuration error encountered,
// if any, without creating further children.
func NewPool[T rotor.Actor](sup *rotor.Supervisor, cfg PoolConfig[T]) (*Pool[T], error) {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	p := &Pool[T]{
		id:   cfg.ID,
		refs: make([]rotor.Ref[T], 0, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		behavior := cfg.Factory(i)

		result := rotor.CreateActor(sup, behavior, cfg.Opts...)
		ref, err := result.Unpack()
		if err != nil {
			return nil, fmt.Errorf("pool %s: member %d: %w", cfg.ID, i, err)
		}

		p.refs = append(p.refs, ref)
	}

	return p, nil
}

// ID returns the pool's identifier.
func (p *Pool[T]) ID() string { return p.id }

// Size returns the number of members in the pool.
func (p *Pool[T]) Size() int { return len(p.refs) }

// Next returns the address of the next member in round-robin order.
func (p *Pool[T]) Next() rotor.Address {
	idx := p.next.Add(1) % uint64(len(p.refs))
	return p.refs[idx].Address()
}

// Addresses returns every member's address, in pool order.
func (p *Pool[T]) Addresses() []rotor.Address {
	addrs := make([]rotor.Address, len(p.refs))
	for i, ref := range p.refs {
		addrs[i] = ref.Address()
	}
	return addrs
}

// Refs returns a copy of the pool's member refs.
func (p *Pool[T]) Refs() []rotor.Ref[T] {
	out := make([]rotor.Ref[T], len(p.refs))
	copy(out, p.refs)
	return out
}

// Tell sends msg to the next member in round-robin order, from the
// perspective of sender (typically the actor driving the caller's own
// logic).
func (p *Pool[T]) Tell(sender *rotor.ActorBase, msg rotor.Message) {
	sender.Send(p.Next(), msg)
}

// Broadcast sends msg to every member of the pool.
func (p *Pool[T]) Broadcast(sender *rotor.ActorBase, msg rotor.Message) {
	for _, ref := range p.refs {
		sender.Send(ref.Address(), msg)
	}
}

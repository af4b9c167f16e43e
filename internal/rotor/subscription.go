package rotor

import (
	"reflect"
	"slices"
)

// typeTokenOf derives the routing-key token for message type M without
// requiring a live instance, so Subscribe can be called generically
// against the payload type alone.
func typeTokenOf[M any]() messageTypeToken {
	return reflect.TypeOf((*M)(nil)).Elem()
}

// Subscribe registers a type-safe handler for messages of type M
// arriving at addr, on behalf of actor a. It is the generic front door
// onto the lifetime plugin's bookkeeping (via ActorBase.subscribeRaw), and is
// the form actor behaviors are expected to call directly.
func Subscribe[M Message](a *ActorBase, addr Address, h func(Envelope, M)) *SubscriptionPoint {
	handler := func(env Envelope) {
		msg, ok := env.Payload.(M)
		if !ok {
			return
		}
		h(env, msg)
	}
	return a.subscribeRaw(addr, typeTokenOf[M](), handler)
}

// OwnerTag distinguishes subscription points owned by an ordinary
// actor from ones owned by a supervisor acting on its own behalf.
// Every point created through Subscribe is tagged OwnerPlain, and the
// child manager's shutdown cleanup matches points by OwnerID; it does
// not consult this tag.
type OwnerTag int

const (
	// OwnerPlain marks a subscription point owned by a regular actor.
	OwnerPlain OwnerTag = iota

	// OwnerSupervisor marks a subscription point owned by a supervisor
	// acting in its supervisory capacity. No code path in this package
	// creates points with this tag; the child manager's own
	// subscriptions go through Subscribe and are tagged OwnerPlain.
	OwnerSupervisor
)

// Handler is the callback bound to a SubscriptionPoint. It is invoked
// with the delivered envelope whenever a message matching the point's
// (address, message type) key arrives at the owning locality.
type Handler func(Envelope)

// SubscriptionPoint is the tuple (address, message-type, owning
// actor, handler, owner-tag) delivery uses to route envelopes.
// Identity is the pointer itself: two *SubscriptionPoint values are
// "the same point" iff they are the same allocation, which is exactly
// what unsubscription needs to unwind cleanly — the point is shared
// between the owning actor's subscriptionContainer and the hosting
// locality's addressMap, and both halves are dropped together by
// lifetimePlugin.unsubscribeLocal.
type SubscriptionPoint struct {
	Address  Address
	MsgType  messageTypeToken
	OwnerID  string
	Handler  Handler
	OwnerTag OwnerTag
}

// subscriptionContainer is the per-actor ordered record of
// subscription points the actor has created. The runtime invariant
// (enforced by the lifetime plugin) is that this container is empty
// by the time the actor reaches StateShutDown.
type subscriptionContainer struct {
	points []*SubscriptionPoint
}

func (c *subscriptionContainer) add(p *SubscriptionPoint) {
	c.points = append(c.points, p)
}

// remove deletes p by pointer identity. Reports whether p was found.
func (c *subscriptionContainer) remove(p *SubscriptionPoint) bool {
	for i, existing := range c.points {
		if existing == p {
			c.points = slices.Delete(c.points, i, i+1)
			return true
		}
	}
	return false
}

func (c *subscriptionContainer) isEmpty() bool {
	return len(c.points) == 0
}

// all returns a snapshot copy of the owned points, safe for the
// caller to range over while the container continues to mutate.
func (c *subscriptionContainer) all() []*SubscriptionPoint {
	return slices.Clone(c.points)
}

// addressMap is a locality-local index from (address, message type)
// to the subscription points that should receive a matching envelope,
// plus a reverse index by owning actor used when a child terminates:
// the supervisor must unsubscribe every point whose owner is that
// child before it can finally remove the child from actors_map.
//
// addressMap is mutated directly only on behalf of actors bound to the
// hosting Locality (from their handlers during DoProcess, or while one
// is being constructed); actors on other localities reach it only
// through control envelopes applied by DoProcess.
type addressMap struct {
	byAddress map[Address]map[messageTypeToken][]*SubscriptionPoint
	byOwner   map[string][]*SubscriptionPoint
}

func newAddressMap() *addressMap {
	return &addressMap{
		byAddress: make(map[Address]map[messageTypeToken][]*SubscriptionPoint),
		byOwner:   make(map[string][]*SubscriptionPoint),
	}
}

func (m *addressMap) subscribe(p *SubscriptionPoint) {
	byType, ok := m.byAddress[p.Address]
	if !ok {
		byType = make(map[messageTypeToken][]*SubscriptionPoint)
		m.byAddress[p.Address] = byType
	}
	byType[p.MsgType] = append(byType[p.MsgType], p)
	m.byOwner[p.OwnerID] = append(m.byOwner[p.OwnerID], p)
}

// unsubscribe removes p from both indices. Reports whether it was
// present, so callers (the lifetime plugin's unsubscription protocol)
// can treat a second unsubscribe of the same point as a no-op.
func (m *addressMap) unsubscribe(p *SubscriptionPoint) bool {
	byType, ok := m.byAddress[p.Address]
	if !ok {
		return false
	}

	pts, ok := byType[p.MsgType]
	if !ok {
		return false
	}

	idx := slices.Index(pts, p)
	if idx < 0 {
		return false
	}

	byType[p.MsgType] = slices.Delete(pts, idx, idx+1)
	if len(byType[p.MsgType]) == 0 {
		delete(byType, p.MsgType)
	}
	if len(byType) == 0 {
		delete(m.byAddress, p.Address)
	}

	if owned := m.byOwner[p.OwnerID]; owned != nil {
		if oi := slices.Index(owned, p); oi >= 0 {
			m.byOwner[p.OwnerID] = slices.Delete(owned, oi, oi+1)
		}
		if len(m.byOwner[p.OwnerID]) == 0 {
			delete(m.byOwner, p.OwnerID)
		}
	}

	return true
}

// lookup returns the subscription points registered for the given
// destination address and payload type.
func (m *addressMap) lookup(addr Address, t messageTypeToken) []*SubscriptionPoint {
	byType, ok := m.byAddress[addr]
	if !ok {
		return nil
	}
	return byType[t]
}

// pointsForOwner returns a snapshot of every point currently owned by
// ownerID, used by the child manager to unsubscribe a departing
// child's subscriptions before removing it from actors_map.
func (m *addressMap) pointsForOwner(ownerID string) []*SubscriptionPoint {
	return slices.Clone(m.byOwner[ownerID])
}

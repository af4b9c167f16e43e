package rotor

import (
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Supervisor is an ActorBase specialized with a ChildManager, making
// it the only kind of actor CreateActor can target as a parent.
// Exactly one Supervisor per Locality is expected to drive that
// locality's DoProcess loop, though nothing in this package enforces
// that — it is a convention only.
type Supervisor struct {
	base *ActorBase
}

// Base returns the underlying ActorBase, for code that needs to
// Send/Subscribe/DoShutdown against the supervisor itself rather than
// one of its children.
func (s *Supervisor) Base() *ActorBase { return s.base }

// Address returns the supervisor's own address.
func (s *Supervisor) Address() Address { return s.base.Address() }

// Locality returns the locality the supervisor (and, by default, its
// children) are bound to.
func (s *Supervisor) Locality() *Locality { return s.base.Locality() }

// CreateSupervisor constructs a root supervisor: one with no parent of
// its own, bound to loc. Use CreateActor with this supervisor as the
// parent to populate its subtree.
func CreateSupervisor(loc *Locality, opts ...ActorOption) fn.Result[*Supervisor] {
	cfg, err := buildActorConfig(opts)
	if err != nil {
		return fn.Err[*Supervisor](err)
	}
	if cfg.Locality == nil {
		cfg.Locality = loc
	}

	base := newActorBase(newActorID(), nil, Address{}, cfg.Locality, cfg, nil, true)
	sup := &Supervisor{base: base}
	base.activate()

	return fn.Ok(sup)
}

// Ref is a typed handle to an actor created via CreateActor, pairing
// its ActorBase with the concrete behavior value so callers can still
// reach behavior-specific methods without a type assertion.
type Ref[T Actor] struct {
	base     *ActorBase
	behavior T
}

// Base returns the underlying ActorBase.
func (r Ref[T]) Base() *ActorBase { return r.base }

// Address returns the actor's own address.
func (r Ref[T]) Address() Address { return r.base.Address() }

// Behavior returns the concrete behavior value passed to CreateActor.
func (r Ref[T]) Behavior() T { return r.behavior }

// CreateActor constructs a child of sup running behavior, applying
// opts over the default configuration. The child is registered with
// sup's ChildManager and immediately sent its
// InitializeActorRequestMsg; the returned Ref is valid to use
// (Send/Subscribe/Link, etc.) as soon as CreateActor returns, even
// though the child itself may still be INITIALIZING.
//
// As with the teacher's RegisterOption/registerConfig pattern,
// configuration errors are reported synchronously via the returned
// fn.Result rather than deferred to a later response message.
func CreateActor[T Actor](sup *Supervisor, behavior T, opts ...ActorOption) fn.Result[Ref[T]] {
	cfg, err := buildActorConfig(opts)
	if err != nil {
		return fn.Err[Ref[T]](err)
	}
	if cfg.Locality == nil {
		cfg.Locality = sup.base.Locality()
	}

	var actor Actor = behavior

	child := newActorBase(
		newActorID(), sup, sup.base.Address(), cfg.Locality, cfg, actor, false,
	)

	sup.base.childManager.register(child)
	child.activate()

	return fn.Ok(Ref[T]{base: child, behavior: behavior})
}

// CreateChildSupervisor constructs a nested supervisor as a child of
// parent: one with its own ChildManager, driven by the same
// InitializeActorRequest/ShutdownRequest protocol as any other child,
// so a shutdown cascading down from the root reaches every supervisor
// in the tree, not just its leaves.
func CreateChildSupervisor(parent *Supervisor, opts ...ActorOption) fn.Result[*Supervisor] {
	cfg, err := buildActorConfig(opts)
	if err != nil {
		return fn.Err[*Supervisor](err)
	}
	if cfg.Locality == nil {
		cfg.Locality = parent.base.Locality()
	}

	base := newActorBase(
		newActorID(), parent, parent.base.Address(), cfg.Locality, cfg, nil, true,
	)

	parent.base.childManager.register(base)
	base.activate()

	return fn.Ok(&Supervisor{base: base})
}

func newActorID() string {
	return uuid.NewString()
}

package rotor

// ReactionBit flags a lifecycle transition a plugin is still waiting
// on. A plugin clears its own bit once the corresponding handler
// returns true (init/shutdown) or once it consumes a subscription
// event.
type ReactionBit uint8

const (
	// ReactInit marks that HandleInit still needs to be (re)called.
	ReactInit ReactionBit = 1 << iota

	// ReactShutdown marks that HandleShutdown still needs to be
	// (re)called.
	ReactShutdown

	// ReactSubscription marks that the plugin wants a look at
	// subscription/unsubscription events.
	ReactSubscription

	// ReactStart marks that the plugin is waiting on the start
	// trigger.
	ReactStart
)

// SubscriptionResult is returned by HandleSubscription/
// HandleUnsubscription traversal to tell the pipeline whether to keep
// walking.
type SubscriptionResult int

const (
	// Consumed indicates the plugin handled the event and cleared its
	// own ReactSubscription bit; later plugins still get a look.
	Consumed SubscriptionResult = iota

	// Ignored indicates the plugin had no interest in this event.
	Ignored

	// Finished indicates no later plugin in the pipeline should see
	// this event at all.
	Finished
)

// PluginIdentity is a stable token identifying a plugin's concrete
// kind. withCasted matches plugins by concrete Go type, not by this
// token.
type PluginIdentity string

// Plugin is a composable behavior module installed into an actor's
// lifecycle pipeline. Each actor owns its own plugin instances
// exclusively; a plugin is activated with a non-owning back-reference
// to its actor, valid only between Activate and Deactivate.
type Plugin interface {
	// Identity returns this plugin's stable identity token.
	Identity() PluginIdentity

	// Activate installs the (non-owning) actor back-reference. Called
	// once, in pipeline order, when the actor transitions out of
	// StateNew.
	Activate(a *ActorBase)

	// Deactivate clears the actor back-reference. Called once, in
	// reverse pipeline order, as the final step of shutdown.
	Deactivate()

	// Reactions reports which lifecycle bits this plugin currently
	// wants a callback for.
	Reactions() ReactionBit

	// ClearReaction clears bit from this plugin's reaction set. Called
	// by the pipeline after a successful HandleInit/HandleShutdown or a
	// Consumed HandleSubscription, never by the plugin itself, so the
	// pipeline — not each plugin — owns when a reaction is considered
	// satisfied.
	ClearReaction(bit ReactionBit)

	// HandleInit advances this plugin's contribution to
	// initialization. Returning false stalls the whole forward walk;
	// returning true clears ReactInit and lets the walk continue.
	HandleInit(req *InitRequest) bool

	// HandleShutdown is the mirror of HandleInit for the reverse walk.
	HandleShutdown(req *ShutdownRequest) bool

	// HandleSubscription inspects a subscription-lifecycle message.
	HandleSubscription(msg Message) SubscriptionResult

	// HandleUnsubscription processes an unsubscription of point.
	// external indicates the unsubscription was requested by a peer
	// rather than originating locally. Returns true if this plugin
	// handled it, stopping the walk.
	HandleUnsubscription(point *SubscriptionPoint, external bool) bool
}

// pluginBase is embedded by concrete plugins to provide the common
// back-reference bookkeeping and a safe set of no-op defaults; plugins
// override only the methods relevant to their reaction bits.
type pluginBase struct {
	actor     *ActorBase
	reactions ReactionBit
}

func (p *pluginBase) Activate(a *ActorBase)  { p.actor = a }
func (p *pluginBase) Deactivate()            { p.actor = nil }
func (p *pluginBase) Reactions() ReactionBit { return p.reactions }

// ClearReaction implements Plugin.
func (p *pluginBase) ClearReaction(b ReactionBit) {
	p.reactions &^= b
}

func (p *pluginBase) setReaction(b ReactionBit) {
	p.reactions |= b
}

func (p *pluginBase) HandleInit(*InitRequest) bool                       { return true }
func (p *pluginBase) HandleShutdown(*ShutdownRequest) bool               { return true }
func (p *pluginBase) HandleSubscription(Message) SubscriptionResult      { return Ignored }
func (p *pluginBase) HandleUnsubscription(*SubscriptionPoint, bool) bool { return false }

// pipeline is the ordered, fixed-at-construction sequence of plugins
// installed into an actor. The canonical order (see spec section 4.2)
// is: core (address/locality/delivery wiring), lifecycle plumbing,
// lifetime, foreigners-support, child-manager (supervisors only),
// link-client, link-server, starter.
type pipeline struct {
	plugins []Plugin
}

func newPipeline(plugins ...Plugin) pipeline {
	return pipeline{plugins: plugins}
}

// activateAll activates every plugin, in forward order, installing
// the actor back-reference.
func (p *pipeline) activateAll(a *ActorBase) {
	for _, pl := range p.plugins {
		pl.Activate(a)
	}
}

// deactivateAll deactivates every plugin, in reverse order, clearing
// the actor back-reference. This is the last step of shutdown.
func (p *pipeline) deactivateAll() {
	for i := len(p.plugins) - 1; i >= 0; i-- {
		p.plugins[i].Deactivate()
	}
}

// initContinue walks the pipeline forward from index 0. For each
// plugin with ReactInit still set, HandleInit is invoked; a false
// return stalls the walk immediately (the caller is expected to
// re-invoke initContinue later once whatever that plugin was waiting
// on resolves). Returns true iff the walk reached the end without
// stalling.
func (p *pipeline) initContinue(req *InitRequest) bool {
	for _, pl := range p.plugins {
		if pl.Reactions()&ReactInit == 0 {
			continue
		}
		if !pl.HandleInit(req) {
			return false
		}
		pl.ClearReaction(ReactInit)
	}
	return true
}

// shutdownContinue is initContinue's mirror: it walks the pipeline in
// reverse, using the ReactShutdown bit.
func (p *pipeline) shutdownContinue(req *ShutdownRequest) bool {
	for i := len(p.plugins) - 1; i >= 0; i-- {
		pl := p.plugins[i]
		if pl.Reactions()&ReactShutdown == 0 {
			continue
		}
		if !pl.HandleShutdown(req) {
			return false
		}
		pl.ClearReaction(ReactShutdown)
	}
	return true
}

// dispatchSubscription traverses the pipeline in reverse, offering
// msg to every plugin with ReactSubscription set until one of them
// reports Finished.
func (p *pipeline) dispatchSubscription(msg Message) {
	for i := len(p.plugins) - 1; i >= 0; i-- {
		pl := p.plugins[i]
		if pl.Reactions()&ReactSubscription == 0 {
			continue
		}
		switch pl.HandleSubscription(msg) {
		case Consumed:
			pl.ClearReaction(ReactSubscription)
		case Finished:
			return
		}
	}
}

// dispatchUnsubscription stops at the first plugin that reports it
// handled the unsubscription.
func (p *pipeline) dispatchUnsubscription(point *SubscriptionPoint, external bool) {
	for i := len(p.plugins) - 1; i >= 0; i-- {
		if p.plugins[i].HandleUnsubscription(point, external) {
			return
		}
	}
}

// withCasted invokes fn with the first plugin in the pipeline whose
// concrete type matches P, if any. This replaces the downcasting the
// original C++ implementation relies on (see spec section 9) with an
// explicit, panic-free combinator.
func withCasted[P Plugin](p *pipeline, fn func(P)) {
	for _, pl := range p.plugins {
		if cast, ok := pl.(P); ok {
			fn(cast)
			return
		}
	}
}

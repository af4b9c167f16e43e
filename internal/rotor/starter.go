package rotor

// starterPlugin gives every actor a dedicated, otherwise-unused
// address that only ever receives one message: the start trigger. A
// supervisor's child manager sends StartActorRequestMsg to a child's
// start address once that child is eligible to run — immediately
// after INITIALIZED, or held back until synchronize_start's own
// trigger fires for a supervisor configured with WithSynchronizeStart.
type starterPlugin struct {
	pluginBase
	startAddr Address
}

// Identity implements Plugin.
func (p *starterPlugin) Identity() PluginIdentity { return "starter" }

func (p *starterPlugin) Activate(a *ActorBase) {
	p.pluginBase.Activate(a)

	Subscribe[StartActorRequestMsg](a, p.startAddr,
		func(_ Envelope, _ StartActorRequestMsg) {
			a.markOperational()
		})
}

// StartAddress returns the address the owning supervisor's child
// manager must send a StartActorRequestMsg to in order to move this
// actor from INITIALIZED to OPERATIONAL.
func (p *starterPlugin) StartAddress() Address { return p.startAddr }

// StartAddress exposes the actor's own starter address for use by a
// supervisor holding only the ActorBase (e.g. across an
// actorutil-style broadcast helper).
func (a *ActorBase) StartAddress() Address { return a.starter.StartAddress() }

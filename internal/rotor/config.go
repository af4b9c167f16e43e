package rotor

import (
	"fmt"
	"time"
)

// ChildPolicy selects how a supervisor's child manager reacts to a
// child's initialization failure while the supervisor itself has not
// yet begun shutting down. The supervisor's own init walk does not wait
// for its children, so this covers its INITIALIZING, INITIALIZED and
// OPERATIONAL states alike.
type ChildPolicy int

const (
	// PolicyShutdownFailed shuts down only the failed child; siblings
	// that are still initializing may continue.
	PolicyShutdownFailed ChildPolicy = iota

	// PolicyShutdownSelf escalates a child's init failure into a full
	// supervisor shutdown with reason ChildInitFailed.
	PolicyShutdownSelf
)

// ActorConfig holds the validated configuration produced by a chain of
// ActorOption functions. It backs every CreateActor and
// CreateSupervisor call.
type ActorConfig struct {
	// Timeout is used for both init and shutdown unless overridden by
	// InitTimeout/ShutdownTimeout.
	Timeout time.Duration

	// InitTimeout overrides Timeout for the actor's own init request,
	// if non-zero.
	InitTimeout time.Duration

	// ShutdownTimeout overrides Timeout for the actor's own shutdown
	// request, if non-zero.
	ShutdownTimeout time.Duration

	// Locality selects the locality the new actor's own address is
	// bound to. Defaults to the creating supervisor's locality.
	Locality *Locality

	// Policy governs supervisor behavior on child init failure; it is
	// read only by the child manager plugin (i.e. only matters for
	// actors created via CreateSupervisor).
	Policy ChildPolicy

	// SynchronizeStart, when true and this actor is a supervisor,
	// defers start_actor_t to every child until this supervisor itself
	// receives start_trigger_t.
	SynchronizeStart bool

	// ExtraPlugins are inserted into the canonical pipeline after
	// link-server and before starter, which stays last, letting callers
	// extend behavior without forking the core plugin set.
	ExtraPlugins []Plugin
}

// ActorOption configures an ActorConfig. An option returns an error to
// surface an invalid configuration synchronously at construction time,
// per the spec's configuration-error taxonomy (section 7.1): Finish
// (CreateActor/CreateSupervisor) returns an empty result and records
// the error rather than panicking.
type ActorOption func(*ActorConfig) error

// WithTimeout sets the default init/shutdown timeout.
func WithTimeout(d time.Duration) ActorOption {
	return func(cfg *ActorConfig) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive", ErrActorMisconfigured)
		}
		cfg.Timeout = d
		return nil
	}
}

// WithInitTimeout overrides the init-specific timeout.
func WithInitTimeout(d time.Duration) ActorOption {
	return func(cfg *ActorConfig) error {
		if d <= 0 {
			return fmt.Errorf("%w: init timeout must be positive", ErrActorMisconfigured)
		}
		cfg.InitTimeout = d
		return nil
	}
}

// WithShutdownTimeout overrides the shutdown-specific timeout.
func WithShutdownTimeout(d time.Duration) ActorOption {
	return func(cfg *ActorConfig) error {
		if d <= 0 {
			return fmt.Errorf("%w: shutdown timeout must be positive", ErrActorMisconfigured)
		}
		cfg.ShutdownTimeout = d
		return nil
	}
}

// WithLocality pins the new actor's own address to loc instead of
// inheriting the creating supervisor's locality.
func WithLocality(loc *Locality) ActorOption {
	return func(cfg *ActorConfig) error {
		if loc == nil {
			return fmt.Errorf("%w: locality must not be nil", ErrActorMisconfigured)
		}
		cfg.Locality = loc
		return nil
	}
}

// WithPolicy sets the child-failure policy for a supervisor.
func WithPolicy(p ChildPolicy) ActorOption {
	return func(cfg *ActorConfig) error {
		cfg.Policy = p
		return nil
	}
}

// WithSynchronizeStart enables or disables synchronized child start
// for a supervisor.
func WithSynchronizeStart(sync bool) ActorOption {
	return func(cfg *ActorConfig) error {
		cfg.SynchronizeStart = sync
		return nil
	}
}

// WithPlugins appends additional plugins to the canonical pipeline.
func WithPlugins(plugins ...Plugin) ActorOption {
	return func(cfg *ActorConfig) error {
		cfg.ExtraPlugins = append(cfg.ExtraPlugins, plugins...)
		return nil
	}
}

// buildActorConfig applies opts in order over a default configuration,
// the way the teacher's RegisterOption/registerConfig pair does for
// actor registration.
func buildActorConfig(opts []ActorOption) (ActorConfig, error) {
	cfg := ActorConfig{Timeout: 5 * time.Second}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return ActorConfig{}, err
		}
	}

	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = cfg.Timeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = cfg.Timeout
	}

	return cfg, nil
}

package procedure

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/cwbudde/algo-psych/adaptive/psi"
)

// Env carries the collaborators a factory may need.
type Env struct {
	// Store, when set, supplies a saved posterior for cfg.Label to PSI kinds.
	Store psi.Store
}

// Factory builds a procedure from its configuration.
type Factory func(cfg Config, env Env) (Procedure, error)

// Registry maps procedure kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.New("procedure: empty kind")
	}

	if factory == nil {
		return errors.New("procedure: nil factory")
	}

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}

	r.factories[kind] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic("procedure registry: " + err.Error())
	}
}

// Lookup returns the factory for kind, or nil.
func (r *Registry) Lookup(kind string) Factory {
	return r.factories[kind]
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// New validates cfg, builds the procedure for cfg.Kind and applies the
// MaxTrials budget.
func (r *Registry) New(cfg Config, env Env) (Procedure, error) {
	factory := r.Lookup(cfg.Kind)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := factory(cfg, env)
	if err != nil {
		return nil, fmt.Errorf("procedure %s: %w", cfg.Kind, err)
	}

	return WithBudget(p, cfg.MaxTrials), nil
}

// New builds a procedure with the default registry.
func New(cfg Config, env Env) (Procedure, error) {
	return DefaultRegistry().New(cfg, env)
}

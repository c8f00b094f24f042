package hooks

import (
	"fmt"
	"log/slog"
	"sort"
)

// Constructor builds a hook from its configuration parameters.
type Constructor func(params map[string]string) (Hook, error)

// Registry maps hook type names to constructors so hooks can be
// instantiated from configuration.
type Registry struct {
	constructors map[string]Constructor
	logger       *slog.Logger
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		logger:       slog.Default().With("component", "hooks"),
	}
}

// Register adds a constructor under a hook type name. Registering the
// same name twice replaces the previous constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.constructors[name] = ctor
	r.logger.Debug("registered hook type", "type", name)
}

// Types returns the registered hook type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Create builds a hook by type name.
func (r *Registry) Create(name string, params map[string]string) (Hook, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownHook, name, r.Types())
	}
	return ctor(params)
}

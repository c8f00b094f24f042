package source

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/billscan/legiscan"
)

// Builder constructs a Plugin from a Config.
type Builder func(cfg Config) (Plugin, error)

// Registry resolves source type names to builders. The registration
// map is built explicitly at startup; Register keeps it open for
// extension.
type Registry struct {
	builders map[string]Builder
	logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
		logger:   slog.Default().With("component", "source"),
	}
}

// DefaultRegistry returns a registry seeded with the built-in source
// types. The LegiScan client may be nil when no api source is
// configured; creating one then fails with ErrClientRequired.
func DefaultRegistry(client *legiscan.Client) *Registry {
	r := NewRegistry()
	r.Register(TypeFiles, func(cfg Config) (Plugin, error) {
		return NewFilesPlugin(cfg)
	})
	r.Register(TypeDatabase, func(cfg Config) (Plugin, error) {
		return NewDatabasePlugin(cfg)
	})
	r.Register(TypeAPI, func(cfg Config) (Plugin, error) {
		return NewAPIPlugin(client, cfg)
	})
	return r
}

// Register adds or replaces the builder for a source type name.
func (r *Registry) Register(name string, builder Builder) {
	r.builders[name] = builder
	r.logger.Debug("registered source type", "type", name)
}

// Types returns the registered source type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builders))
	for name := range r.builders {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Create builds the source cfg.Type names.
func (r *Registry) Create(cfg Config) (Plugin, error) {
	builder, ok := r.builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSource, cfg.Type, r.Types())
	}
	return builder(cfg)
}

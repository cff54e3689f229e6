// Package oracle selects a zero-shot scoring backend by name.
package oracle

import (
	"fmt"
	"log/slog"
	"sort"

	"NewsLabeler/internal/config"
	"NewsLabeler/internal/ports"
)

// Factory builds a backend from configuration.
type Factory func(cfg config.Config, logger *slog.Logger) (ports.ScoreOracle, error)

// Registry keeps a mapping from backend names to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a backend factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Names lists registered backends alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves name and constructs the backend.
func (r *Registry) Build(name string, cfg config.Config, logger *slog.Logger) (ports.ScoreOracle, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("classifier backend %s is not registered (have %v)", name, r.Names())
	}
	oracle, err := factory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build %s classifier: %w", name, err)
	}
	return oracle, nil
}

package postprocessors

import (
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// BuilderFunc constructs a stage from its settings table.
// Settings usually come straight from TOML so numbers may be int64 or float64.
type BuilderFunc func(settings map[string]any) (driven.PostProcessor, error)

// Registry resolves stage names to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register binds name to build, replacing any earlier binding.
func (r *Registry) Register(name string, build BuilderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = build
}

// Build constructs the stage registered as name.
// An unregistered name yields domain.ErrInvalidInput.
func (r *Registry) Build(name string, settings map[string]any) (driven.PostProcessor, error) {
	r.mu.RLock()
	build, ok := r.builders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q", domain.ErrInvalidInput, name)
	}
	return build(settings)
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// BuildPipeline resolves order into a pipeline.
// settings is keyed by stage name; stages without an entry get nil.
func (r *Registry) BuildPipeline(order []string, settings map[string]map[string]any) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range order {
		stage, err := r.Build(name, settings[name])
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(stage)
	}
	return p, nil
}

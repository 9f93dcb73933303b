package source

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// All selects every registered adapter.
const All = "all"

// Registry holds adapters in registration order.
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry holding adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds a. A later adapter with the same name replaces the earlier
// one in place.
func (r *Registry) Register(a Adapter) {
	for i, existing := range r.adapters {
		if existing.Name() == a.Name() {
			r.adapters[i] = a
			return
		}
	}
	r.adapters = append(r.adapters, a)
}

// Names returns the registered adapter names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Adapters returns the registered adapters in order.
func (r *Registry) Adapters() []Adapter {
	return slices.Clone(r.adapters)
}

// Select resolves a source selector: one adapter name, or "all" for every
// adapter in registration order.
func (r *Registry) Select(name string) ([]Adapter, error) {
	name = strings.TrimSpace(name)
	if name == All {
		return r.Adapters(), nil
	}
	for _, a := range r.adapters {
		if a.Name() == name {
			return []Adapter{a}, nil
		}
	}
	return nil, eris.Errorf("source: unknown source %q (available: %s, %s)",
		name, strings.Join(r.Names(), ", "), All)
}

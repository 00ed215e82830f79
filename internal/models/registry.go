package models

import (
	"fmt"
	"maps"
	"slices"
)

// Registry maps model names to definitions.
type Registry struct {
	models map[string]*Model
}

// NewRegistry returns a registry holding every built-in model.
func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]*Model)}
	for _, m := range []*Model{Decay(), Moiety(), PSI(), PETC()} {
		r.models[m.Name] = m
	}
	return r
}

// Register adds a model. Names must be unique.
func (r *Registry) Register(m *Model) error {
	if m.Name == "" || m.Define == nil || m.Defaults == nil {
		return fmt.Errorf("models: incomplete definition %q", m.Name)
	}
	if _, dup := r.models[m.Name]; dup {
		return fmt.Errorf("models: %q already registered", m.Name)
	}
	r.models[m.Name] = m
	return nil
}

func (r *Registry) Get(name string) (*Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}

// List returns model names in sorted order.
func (r *Registry) List() []string {
	return slices.Sorted(maps.Keys(r.models))
}

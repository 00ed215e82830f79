package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/rxnet/internal/network"
)

var (
	ErrUnknownModel     = errors.New("models: unknown model")
	ErrUnknownParameter = errors.New("models: unknown parameter")
)

// Model is a named network definition. Define declares every component on
// the builder; Defaults returns a fresh parameter table on every call, so
// overriding one run never leaks into another.
type Model struct {
	Name        string
	Description string
	Defaults    func() map[string]float64
	Define      func(b *network.Builder, p map[string]float64) error
	// Conserved names groups of compounds whose sum the reactions keep
	// constant. Runs report their drift.
	Conserved map[string][]string
}

// Overrides replaces default parameter values and initial concentrations.
type Overrides struct {
	Parameters map[string]float64
	Initial    map[string]float64
}

// Parameters returns the default table with overrides applied.
func (m *Model) Parameters(overrides map[string]float64) (map[string]float64, error) {
	p := m.Defaults()
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := p[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", ErrUnknownParameter, m.Name, name)
		}
		p[name] = overrides[name]
	}
	return p, nil
}

// Builder returns an open builder holding the model's declarations.
func (m *Model) Builder(ov Overrides, opts ...network.Option) (*network.Builder, error) {
	p, err := m.Parameters(ov.Parameters)
	if err != nil {
		return nil, err
	}
	b := network.NewBuilder(opts...)
	if err := m.Define(b, p); err != nil {
		return nil, fmt.Errorf("define %s: %w", m.Name, err)
	}
	for _, name := range slices.Sorted(maps.Keys(ov.Initial)) {
		if err := b.SetInitial(name, ov.Initial[name]); err != nil {
			return nil, fmt.Errorf("initial value for %s: %w", m.Name, err)
		}
	}
	return b, nil
}

// Build declares and finalizes the model.
func (m *Model) Build(ov Overrides, opts ...network.Option) (*network.FrozenNetwork, error) {
	b, err := m.Builder(ov, opts...)
	if err != nil {
		return nil, err
	}
	net, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize %s: %w", m.Name, err)
	}
	return net, nil
}

// decl wraps a builder and keeps the first error, so model definitions read
// as a flat list of declarations.
type decl struct {
	b   *network.Builder
	err error
}

func (d *decl) do(fn func() error) {
	if d.err == nil {
		d.err = fn()
	}
}

func (d *decl) params(p map[string]float64) {
	d.do(func() error { return d.b.AddParameters(p) })
}

func (d *decl) compound(name string, initial float64) {
	d.do(func() error { return d.b.AddCompound(name, initial) })
}

func (d *decl) derived(name string, fn network.Func, inputs ...string) {
	d.do(func() error { return d.b.AddDerivedParameter(name, fn, inputs...) })
}

func (d *decl) module(output string, fn network.Func, inputs ...string) {
	d.do(func() error { return d.b.AddModule(output, fn, inputs...) })
}

func (d *decl) modules(m network.Module) {
	d.do(func() error { return d.b.AddAlgebraicModule(m) })
}

func (d *decl) forcing(f network.Forcing) {
	d.do(func() error { return d.b.AddForcing(f) })
}

func (d *decl) reaction(r network.Reaction) {
	d.do(func() error { return d.b.AddReaction(r) })
}

// perBuffer is the coefficient -c/bH of a proton released into the buffered
// lumen.
func perBuffer(c float64) network.Coefficient {
	return network.Coefficient{Fn: network.F1(func(bH float64) float64 { return c / bH }), Inputs: []string{"bH"}}
}

// parameterCoefficient uses a parameter value as the coefficient.
func parameterCoefficient(name string) network.Coefficient {
	return network.Coefficient{Fn: network.F1(func(v float64) float64 { return v }), Inputs: []string{name}}
}

package network

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// FrozenNetwork is the validated, order-resolved form of a model. Its
// topology and parameter values never change. It must not be copied.
type FrozenNetwork struct {
	logger      *slog.Logger
	finiteCheck bool

	slots     map[string]int
	slotNames []string
	kinds     map[string]kind
	template  []float64

	compounds     []string
	initial       []float64
	paramNames    []string
	moduleOutputs []string

	forcings  []op
	modules   []op
	reactions []compiledReaction

	maxArity   int
	maxOutputs int
	pool       sync.Pool
}

// ReactionInfo describes a reaction after validation.
type ReactionInfo struct {
	Name       string
	Inputs     []string
	Substrates []string
	Products   []string
	// Modifiers are the declared modifiers, or the inferred ones when none
	// were declared.
	Modifiers     []string
	Stoichiometry map[string]float64
	Reversible    bool
}

// Dim returns the number of compounds.
func (n *FrozenNetwork) Dim() int { return len(n.compounds) }

// Compounds returns the compound names in declaration order. The derivative
// vector and the state vector follow this order.
func (n *FrozenNetwork) Compounds() []string { return slices.Clone(n.compounds) }

// CompoundIndex returns the position of a compound in the state vector.
func (n *FrozenNetwork) CompoundIndex(name string) (int, bool) {
	if n.kinds[name] != kindCompound {
		return 0, false
	}
	return n.slots[name] - 1, true
}

// InitialState returns a fresh copy of the declared initial values.
func (n *FrozenNetwork) InitialState() []float64 { return slices.Clone(n.initial) }

// Parameter returns a resolved base or derived parameter.
func (n *FrozenNetwork) Parameter(name string) (float64, bool) {
	k := n.kinds[name]
	if k != kindParameter && k != kindDerived {
		return 0, false
	}
	return n.template[n.slots[name]], true
}

// Parameters returns every resolved parameter value.
func (n *FrozenNetwork) Parameters() map[string]float64 {
	out := make(map[string]float64, len(n.paramNames))
	for _, name := range n.paramNames {
		out[name] = n.template[n.slots[name]]
	}
	return out
}

// ParameterNames returns base parameters in declaration order followed by
// derived parameters in resolution order.
func (n *FrozenNetwork) ParameterNames() []string { return slices.Clone(n.paramNames) }

// IsDerived reports whether name is a derived parameter.
func (n *FrozenNetwork) IsDerived(name string) bool { return n.kinds[name] == kindDerived }

// ModuleOrder returns module names in evaluation order.
func (n *FrozenNetwork) ModuleOrder() []string {
	out := make([]string, len(n.modules))
	for i, m := range n.modules {
		out[i] = m.name
	}
	return out
}

// ModuleOutputs returns module outputs in declaration order.
func (n *FrozenNetwork) ModuleOutputs() []string { return slices.Clone(n.moduleOutputs) }

// Forcings returns forcing names in declaration order.
func (n *FrozenNetwork) Forcings() []string {
	out := make([]string, len(n.forcings))
	for i, f := range n.forcings {
		out[i] = f.name
	}
	return out
}

// Reactions returns reaction names in declaration order.
func (n *FrozenNetwork) Reactions() []string {
	out := make([]string, len(n.reactions))
	for i, r := range n.reactions {
		out[i] = r.name
	}
	return out
}

// Reaction returns the validated description of a reaction.
func (n *FrozenNetwork) Reaction(name string) (ReactionInfo, bool) {
	for _, r := range n.reactions {
		if r.name == name {
			info := r.info
			info.Inputs = slices.Clone(info.Inputs)
			info.Substrates = slices.Clone(info.Substrates)
			info.Products = slices.Clone(info.Products)
			info.Modifiers = slices.Clone(info.Modifiers)
			info.Stoichiometry = maps.Clone(info.Stoichiometry)
			return info, true
		}
	}
	return ReactionInfo{}, false
}

// StoichiometricMatrix returns the compounds × reactions coefficient matrix.
func (n *FrozenNetwork) StoichiometricMatrix() [][]float64 {
	m := make([][]float64, len(n.compounds))
	for i := range m {
		m[i] = make([]float64, len(n.reactions))
	}
	for j, r := range n.reactions {
		for _, t := range r.terms {
			m[t.compound][j] = t.coeff
		}
	}
	return m
}

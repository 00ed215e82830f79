package network

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/san-kum/rxnet/internal/dag"
)

// op is one compiled function call: argument slots in, output slots out.
type op struct {
	kind string
	name string
	fn   Func
	in   []int
	out  []int
}

type term struct {
	compound int
	coeff    float64
}

type compiledReaction struct {
	op
	terms []term
	info  ReactionInfo
}

// Finalize validates every declaration, resolves derived parameters, fixes
// the module evaluation order and binds all inputs to slots. It either
// returns a complete FrozenNetwork or an error and no network at all; on
// error the builder stays open so the declaration can be corrected.
// Calling Finalize again after success returns the same network.
func (b *Builder) Finalize() (*FrozenNetwork, error) {
	if b.frozen != nil {
		return b.frozen, nil
	}

	params, err := b.resolveParameters()
	if err != nil {
		return nil, err
	}

	n := &FrozenNetwork{
		logger:      b.logger,
		finiteCheck: b.finiteCheck,
		slots:       map[string]int{Time: 0},
		slotNames:   []string{Time},
		kinds:       make(map[string]kind, len(b.names)),
	}
	for name, k := range b.names {
		n.kinds[name] = k
	}
	addSlot := func(name string) {
		n.slots[name] = len(n.slotNames)
		n.slotNames = append(n.slotNames, name)
	}

	for _, c := range b.compounds {
		addSlot(c.name)
		n.compounds = append(n.compounds, c.name)
		n.initial = append(n.initial, c.initial)
	}
	for _, p := range b.params {
		addSlot(p.name)
		n.paramNames = append(n.paramNames, p.name)
	}
	for _, name := range params.order {
		addSlot(name)
		n.paramNames = append(n.paramNames, name)
	}
	for _, f := range b.forcings {
		for _, out := range f.Outputs {
			addSlot(out)
		}
	}
	for _, m := range b.modules {
		for _, out := range m.Outputs {
			addSlot(out)
			n.moduleOutputs = append(n.moduleOutputs, out)
		}
	}
	if len(n.slotNames) != len(b.names)+1 {
		return nil, buildErr(ErrDuplicateName, "network", "", "namespace has %d slots for %d names", len(n.slotNames), len(b.names)+1)
	}

	n.template = make([]float64, len(n.slotNames))
	for _, name := range n.paramNames {
		n.template[n.slots[name]] = params.values[name]
	}

	if err := b.compileForcings(n); err != nil {
		return nil, err
	}
	if err := b.compileModules(n); err != nil {
		return nil, err
	}
	if err := b.compileReactions(n, params.values); err != nil {
		return nil, err
	}
	if err := n.verifyOrder(); err != nil {
		return nil, err
	}

	for _, o := range n.allOps() {
		n.maxArity = max(n.maxArity, len(o.in))
		n.maxOutputs = max(n.maxOutputs, len(o.out), 1)
	}
	width, arity, outputs, dim := len(n.slotNames), n.maxArity, n.maxOutputs, len(n.compounds)
	n.pool = sync.Pool{
		New: func() any {
			return &scratch{
				vals: make([]float64, width),
				args: make([]float64, arity),
				out:  make([]float64, outputs),
				acc:  make([]float64, dim),
			}
		},
	}

	b.frozen = n
	b.logger.Debug("network finalized",
		"compounds", len(n.compounds),
		"parameters", len(n.paramNames),
		"forcings", len(n.forcings),
		"modules", len(n.modules),
		"reactions", len(n.reactions),
		"module_order", strings.Join(n.ModuleOrder(), ","),
	)
	return n, nil
}

func (b *Builder) compileForcings(n *FrozenNetwork) error {
	for _, f := range b.forcings {
		if err := checkFunc(f.Fn, "forcing", f.Name, 1+len(f.Params), len(f.Outputs)); err != nil {
			return err
		}
		o := op{kind: "forcing", name: f.Name, fn: f.Fn, in: []int{0}}
		for _, p := range f.Params {
			k := b.names[p]
			if k != kindParameter && k != kindDerived {
				return buildErr(ErrUnresolvedReference, "forcing", f.Name, "input %q is not a parameter", p)
			}
			o.in = append(o.in, n.slots[p])
		}
		for _, out := range f.Outputs {
			o.out = append(o.out, n.slots[out])
		}
		n.forcings = append(n.forcings, o)
	}
	return nil
}

func (b *Builder) compileModules(n *FrozenNetwork) error {
	producer := make(map[string]string)
	g := dag.New()
	for _, m := range b.modules {
		g.AddNode(m.Name)
		for _, out := range m.Outputs {
			producer[out] = m.Name
		}
	}

	byName := make(map[string]*Module, len(b.modules))
	for i := range b.modules {
		m := &b.modules[i]
		byName[m.Name] = m
		if err := checkFunc(m.Fn, "module", m.Name, len(m.Inputs), len(m.Outputs)); err != nil {
			return err
		}
		for _, in := range m.Inputs {
			if in == Time {
				continue
			}
			switch b.names[in] {
			case 0:
				return buildErr(ErrUnresolvedReference, "module", m.Name, "input %q is not declared", in)
			case kindModule:
				if err := g.AddEdge(producer[in], m.Name); err != nil {
					return err
				}
			}
		}
	}

	order, err := g.Sort()
	if err != nil {
		var cerr *dag.CycleError
		if errors.As(err, &cerr) {
			return &CycleError{Graph: "modules", Path: cerr.Path}
		}
		return err
	}

	for _, name := range order {
		m := byName[name]
		o := op{kind: "module", name: m.Name, fn: m.Fn}
		for _, in := range m.Inputs {
			o.in = append(o.in, n.slots[in])
		}
		for _, out := range m.Outputs {
			o.out = append(o.out, n.slots[out])
		}
		n.modules = append(n.modules, o)
	}
	return nil
}

func (b *Builder) compileReactions(n *FrozenNetwork, params map[string]float64) error {
	for _, r := range b.reactions {
		if err := checkFunc(r.Fn, "reaction", r.Name, len(r.Inputs), 1); err != nil {
			return err
		}
		cr := compiledReaction{op: op{kind: "reaction", name: r.Name, fn: r.Fn}}
		for _, in := range r.Inputs {
			if in != Time && b.names[in] == 0 {
				return buildErr(ErrUnresolvedReference, "reaction", r.Name, "input %q is not declared", in)
			}
			cr.in = append(cr.in, n.slots[in])
		}

		coeffs, err := b.reactionCoefficients(r, params)
		if err != nil {
			return err
		}
		for _, c := range n.compounds {
			if v, ok := coeffs[c]; ok {
				cr.terms = append(cr.terms, term{compound: b.compoundIdx[c], coeff: v})
			}
		}

		info, err := b.checkDependencies(r, coeffs)
		if err != nil {
			return err
		}
		cr.info = info
		n.reactions = append(n.reactions, cr)
	}
	return nil
}

// reactionCoefficients merges literal and derived stoichiometry.
func (b *Builder) reactionCoefficients(r Reaction, params map[string]float64) (map[string]float64, error) {
	coeffs := make(map[string]float64, len(r.Stoichiometry)+len(r.DerivedStoichiometry))
	for c, v := range r.Stoichiometry {
		if b.names[c] != kindCompound {
			return nil, buildErr(ErrUnresolvedReference, "reaction", r.Name, "stoichiometry key %q is not a compound", c)
		}
		coeffs[c] = v
	}
	for c, coef := range r.DerivedStoichiometry {
		if b.names[c] != kindCompound {
			return nil, buildErr(ErrUnresolvedReference, "reaction", r.Name, "stoichiometry key %q is not a compound", c)
		}
		if _, dup := coeffs[c]; dup {
			return nil, buildErr(ErrDuplicateName, "reaction", r.Name, "compound %q has both a literal and a derived coefficient", c)
		}
		if err := checkFunc(coef.Fn, "reaction", r.Name, len(coef.Inputs), 1); err != nil {
			return nil, err
		}
		args := make([]float64, len(coef.Inputs))
		for i, in := range coef.Inputs {
			k := b.names[in]
			if k != kindParameter && k != kindDerived {
				return nil, buildErr(ErrUnresolvedReference, "reaction", r.Name,
					"coefficient of %q reads %q, which is not a parameter", c, in)
			}
			args[i] = params[in]
		}
		v, err := callAtBuild(coef.Fn, args, "reaction", r.Name, "coefficient of "+c+": ")
		if err != nil {
			return nil, err
		}
		coeffs[c] = v
	}
	return coeffs, nil
}

// checkDependencies compares declared modifiers with the state-dependent
// inputs. Without declared modifiers they are inferred from the inputs.
func (b *Builder) checkDependencies(r Reaction, coeffs map[string]float64) (ReactionInfo, error) {
	info := ReactionInfo{
		Name:          r.Name,
		Inputs:        slices.Clone(r.Inputs),
		Stoichiometry: coeffs,
		Reversible:    r.Reversible,
	}
	for _, c := range b.compounds {
		v, ok := coeffs[c.name]
		switch {
		case !ok:
		case v < 0:
			info.Substrates = append(info.Substrates, c.name)
		case v > 0:
			info.Products = append(info.Products, c.name)
		}
	}

	var dynamic []string
	for _, in := range r.Inputs {
		if isDynamic(in, b.names[in]) && !slices.Contains(dynamic, in) {
			dynamic = append(dynamic, in)
		}
	}

	if len(r.Modifiers) == 0 {
		for _, d := range dynamic {
			if !slices.Contains(info.Substrates, d) {
				info.Modifiers = append(info.Modifiers, d)
			}
		}
		return info, nil
	}

	for _, m := range r.Modifiers {
		if m != Time && b.names[m] == 0 {
			return info, buildErr(ErrUnresolvedReference, "reaction", r.Name, "modifier %q is not declared", m)
		}
		if !slices.Contains(r.Inputs, m) {
			return info, buildErr(ErrArityMismatch, "reaction", r.Name, "modifier %q is not among the inputs", m)
		}
	}
	for _, d := range dynamic {
		if !slices.Contains(info.Substrates, d) && !slices.Contains(r.Modifiers, d) {
			return info, buildErr(ErrArityMismatch, "reaction", r.Name,
				"input %q is neither a substrate nor a declared modifier", d)
		}
	}
	info.Modifiers = slices.Clone(r.Modifiers)
	return info, nil
}

func isDynamic(name string, k kind) bool {
	return name == Time || k == kindCompound || k == kindModule || k == kindForcing
}

// verifyOrder replays the evaluation order and checks that every slot is
// written before it is read.
func (n *FrozenNetwork) verifyOrder() error {
	defined := make([]bool, len(n.slotNames))
	defined[0] = true
	for _, name := range n.compounds {
		defined[n.slots[name]] = true
	}
	for _, name := range n.paramNames {
		defined[n.slots[name]] = true
	}
	for _, o := range n.allOps() {
		for _, slot := range o.in {
			if !defined[slot] {
				return buildErr(ErrMissingInput, o.kind, o.name, "input %q is read before it is produced", n.slotNames[slot])
			}
		}
		for _, slot := range o.out {
			defined[slot] = true
		}
	}
	return nil
}

func (n *FrozenNetwork) allOps() []*op {
	ops := make([]*op, 0, len(n.forcings)+len(n.modules)+len(n.reactions))
	for i := range n.forcings {
		ops = append(ops, &n.forcings[i])
	}
	for i := range n.modules {
		ops = append(ops, &n.modules[i])
	}
	for i := range n.reactions {
		ops = append(ops, &n.reactions[i].op)
	}
	return ops
}

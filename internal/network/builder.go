package network

import (
	"io"
	"log/slog"
	"maps"
	"slices"
)

// Time is the reserved input name bound to the evaluation time.
const Time = "time"

type kind int

const (
	kindCompound kind = iota + 1
	kindParameter
	kindDerived
	kindForcing
	kindModule
)

func (k kind) String() string {
	switch k {
	case kindCompound:
		return "compound"
	case kindParameter:
		return "parameter"
	case kindDerived:
		return "derived parameter"
	case kindForcing:
		return "forcing output"
	case kindModule:
		return "module output"
	default:
		return "unknown"
	}
}

// Module is an algebraic module: Fn maps Inputs to Outputs and is
// re-evaluated on every call. Inputs may name compounds, parameters, forcing
// outputs, other modules' outputs and Time.
type Module struct {
	// Name identifies the module; it defaults to the first output.
	Name    string
	Outputs []string
	Fn      Func
	Inputs  []string
}

// Reaction is a rate law paired with its stoichiometry. The rate is
// Fn(Inputs...) and contributes coeff*rate to each listed compound.
type Reaction struct {
	Name   string
	Fn     Func
	Inputs []string

	// Stoichiometry holds literal coefficients. A coefficient computed from
	// parameters while the model is being declared is a snapshot: it does not
	// follow later UpdateParameter calls.
	Stoichiometry map[string]float64

	// DerivedStoichiometry holds coefficients computed from parameter values
	// at Finalize, after all updates have been applied.
	DerivedStoichiometry map[string]Coefficient

	// Modifiers declares the state-dependent inputs that are not substrates.
	// When non-empty it must agree with Inputs exactly.
	Modifiers []string

	// Reversible is descriptive only. Reversibility lives in Fn.
	Reversible bool
}

// Coefficient is a stoichiometric coefficient computed from parameters.
type Coefficient struct {
	Fn     Func
	Inputs []string
}

type compound struct {
	name    string
	initial float64
}

type parameter struct {
	name  string
	value float64
}

type derivedParameter struct {
	name   string
	fn     Func
	inputs []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used during Finalize. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFiniteCheck makes evaluation fail with ErrNonFinite when a module
// output or reaction rate is NaN or Inf.
func WithFiniteCheck(on bool) Option {
	return func(b *Builder) { b.finiteCheck = on }
}

// Builder collects the declarations of one network. All Add and Update
// methods fail with ErrFrozenNetwork once Finalize has succeeded.
type Builder struct {
	logger      *slog.Logger
	finiteCheck bool

	names map[string]kind

	compounds   []compound
	compoundIdx map[string]int
	params      []parameter
	paramIdx    map[string]int
	derived     []derivedParameter
	forcings    []Forcing
	forcingIdx  map[string]int
	modules     []Module
	moduleIdx   map[string]int
	reactions   []Reaction
	reactionIdx map[string]int

	frozen *FrozenNetwork
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		names:       make(map[string]kind),
		compoundIdx: make(map[string]int),
		paramIdx:    make(map[string]int),
		forcingIdx:  make(map[string]int),
		moduleIdx:   make(map[string]int),
		reactionIdx: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) checkMutable(kind, name string) error {
	if b.frozen != nil {
		return buildErr(ErrFrozenNetwork, kind, name, "Finalize has already been called")
	}
	return nil
}

// claim registers name in the shared namespace.
func (b *Builder) claim(name string, k kind) error {
	if name == "" {
		return buildErr(ErrUnresolvedReference, k.String(), name, "empty name")
	}
	if name == Time {
		return buildErr(ErrDuplicateName, k.String(), name, "%q is reserved for the evaluation time", Time)
	}
	if prev, ok := b.names[name]; ok {
		return buildErr(ErrDuplicateName, k.String(), name, "already declared as %s", prev)
	}
	b.names[name] = k
	return nil
}

// AddCompound declares a state variable with its initial value.
func (b *Builder) AddCompound(name string, initial float64) error {
	if err := b.checkMutable("compound", name); err != nil {
		return err
	}
	if err := b.claim(name, kindCompound); err != nil {
		return err
	}
	b.compoundIdx[name] = len(b.compounds)
	b.compounds = append(b.compounds, compound{name: name, initial: initial})
	return nil
}

// AddCompounds declares several compounds with a zero initial value.
func (b *Builder) AddCompounds(names ...string) error {
	for _, n := range names {
		if err := b.AddCompound(n, 0); err != nil {
			return err
		}
	}
	return nil
}

// SetInitial changes the initial value of a declared compound.
func (b *Builder) SetInitial(name string, value float64) error {
	if err := b.checkMutable("compound", name); err != nil {
		return err
	}
	i, ok := b.compoundIdx[name]
	if !ok {
		return buildErr(ErrUnresolvedReference, "compound", name, "no compound with this name")
	}
	b.compounds[i].initial = value
	return nil
}

// AddParameter declares a scalar constant.
func (b *Builder) AddParameter(name string, value float64) error {
	if err := b.checkMutable("parameter", name); err != nil {
		return err
	}
	if err := b.claim(name, kindParameter); err != nil {
		return err
	}
	b.paramIdx[name] = len(b.params)
	b.params = append(b.params, parameter{name: name, value: value})
	return nil
}

// AddParameters declares every entry of params in sorted name order.
func (b *Builder) AddParameters(params map[string]float64) error {
	for _, name := range slices.Sorted(maps.Keys(params)) {
		if err := b.AddParameter(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateParameter replaces the value of a base parameter. Derived parameters
// and derived stoichiometry follow the new value; literal coefficients
// computed earlier do not.
func (b *Builder) UpdateParameter(name string, value float64) error {
	if err := b.checkMutable("parameter", name); err != nil {
		return err
	}
	i, ok := b.paramIdx[name]
	if !ok {
		return buildErr(ErrUnresolvedReference, "parameter", name, "no base parameter with this name")
	}
	b.params[i].value = value
	return nil
}

// AddDerivedParameter declares a parameter computed once from other
// parameters. Inputs are resolved at Finalize (or by GetParameter).
func (b *Builder) AddDerivedParameter(name string, fn Func, inputs ...string) error {
	if err := b.checkMutable("derived parameter", name); err != nil {
		return err
	}
	if err := checkFunc(fn, "derived parameter", name, len(inputs), 1); err != nil {
		return err
	}
	if err := b.claim(name, kindDerived); err != nil {
		return err
	}
	b.derived = append(b.derived, derivedParameter{name: name, fn: fn, inputs: slices.Clone(inputs)})
	return nil
}

// AddForcing declares a forcing rule. Its outputs join the shared namespace.
func (b *Builder) AddForcing(f Forcing) error {
	if f.Name == "" && len(f.Outputs) > 0 {
		f.Name = f.Outputs[0]
	}
	if err := b.checkMutable("forcing", f.Name); err != nil {
		return err
	}
	if len(f.Outputs) == 0 {
		return buildErr(ErrArityMismatch, "forcing", f.Name, "no outputs declared")
	}
	if _, dup := b.forcingIdx[f.Name]; dup {
		return buildErr(ErrDuplicateName, "forcing", f.Name, "forcing already declared")
	}
	if err := checkFunc(f.Fn, "forcing", f.Name, 1+len(f.Params), len(f.Outputs)); err != nil {
		return err
	}
	if err := b.claimAll(f.Outputs, kindForcing); err != nil {
		return err
	}
	f.Outputs = slices.Clone(f.Outputs)
	f.Params = slices.Clone(f.Params)
	b.forcingIdx[f.Name] = len(b.forcings)
	b.forcings = append(b.forcings, f)
	return nil
}

// AddAlgebraicModule declares a module. Its outputs join the shared namespace.
func (b *Builder) AddAlgebraicModule(m Module) error {
	if m.Name == "" && len(m.Outputs) > 0 {
		m.Name = m.Outputs[0]
	}
	if err := b.checkMutable("module", m.Name); err != nil {
		return err
	}
	if len(m.Outputs) == 0 {
		return buildErr(ErrArityMismatch, "module", m.Name, "no outputs declared")
	}
	if _, dup := b.moduleIdx[m.Name]; dup {
		return buildErr(ErrDuplicateName, "module", m.Name, "module already declared")
	}
	if err := checkFunc(m.Fn, "module", m.Name, len(m.Inputs), len(m.Outputs)); err != nil {
		return err
	}
	if err := b.claimAll(m.Outputs, kindModule); err != nil {
		return err
	}
	m.Outputs = slices.Clone(m.Outputs)
	m.Inputs = slices.Clone(m.Inputs)
	b.moduleIdx[m.Name] = len(b.modules)
	b.modules = append(b.modules, m)
	return nil
}

// AddModule is shorthand for a single-output module named after its output.
func (b *Builder) AddModule(output string, fn Func, inputs ...string) error {
	return b.AddAlgebraicModule(Module{Outputs: []string{output}, Fn: fn, Inputs: inputs})
}

// AddReaction declares a reaction. Reaction names are unique among reactions.
func (b *Builder) AddReaction(r Reaction) error {
	if err := b.checkMutable("reaction", r.Name); err != nil {
		return err
	}
	if r.Name == "" {
		return buildErr(ErrUnresolvedReference, "reaction", r.Name, "empty name")
	}
	if _, dup := b.reactionIdx[r.Name]; dup {
		return buildErr(ErrDuplicateName, "reaction", r.Name, "reaction already declared")
	}
	if err := checkFunc(r.Fn, "reaction", r.Name, len(r.Inputs), 1); err != nil {
		return err
	}
	b.reactionIdx[r.Name] = len(b.reactions)
	b.reactions = append(b.reactions, cloneReaction(r))
	return nil
}

// UpdateReaction replaces the definition of an existing reaction, keeping
// its position in the declaration order.
func (b *Builder) UpdateReaction(r Reaction) error {
	if err := b.checkMutable("reaction", r.Name); err != nil {
		return err
	}
	i, ok := b.reactionIdx[r.Name]
	if !ok {
		return buildErr(ErrUnresolvedReference, "reaction", r.Name, "no reaction with this name")
	}
	if err := checkFunc(r.Fn, "reaction", r.Name, len(r.Inputs), 1); err != nil {
		return err
	}
	b.reactions[i] = cloneReaction(r)
	return nil
}

func (b *Builder) claimAll(names []string, k kind) error {
	for i, n := range names {
		if slices.Contains(names[:i], n) {
			return buildErr(ErrDuplicateName, k.String(), n, "listed twice")
		}
	}
	for i, n := range names {
		if err := b.claim(n, k); err != nil {
			for _, claimed := range names[:i] {
				delete(b.names, claimed)
			}
			return err
		}
	}
	return nil
}

func checkFunc(fn Func, kind, name string, inputs, outputs int) error {
	if !fn.valid() {
		return buildErr(ErrArityMismatch, kind, name, "no function given")
	}
	if fn.Arity() != inputs {
		return buildErr(ErrArityMismatch, kind, name, "function takes %d arguments, %d inputs declared", fn.Arity(), inputs)
	}
	if fn.Outputs() != outputs {
		return buildErr(ErrArityMismatch, kind, name, "function produces %d values, %d outputs declared", fn.Outputs(), outputs)
	}
	return nil
}

func cloneReaction(r Reaction) Reaction {
	r.Inputs = slices.Clone(r.Inputs)
	r.Modifiers = slices.Clone(r.Modifiers)
	r.Stoichiometry = maps.Clone(r.Stoichiometry)
	if r.DerivedStoichiometry != nil {
		ds := make(map[string]Coefficient, len(r.DerivedStoichiometry))
		for k, c := range r.DerivedStoichiometry {
			ds[k] = Coefficient{Fn: c.Fn, Inputs: slices.Clone(c.Inputs)}
		}
		r.DerivedStoichiometry = ds
	}
	return r
}

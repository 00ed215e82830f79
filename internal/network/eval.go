package network

import (
	"fmt"
	"math"
	"slices"
)

// RHSFunc maps a time and a state vector to the derivative vector.
type RHSFunc func(t float64, y []float64) ([]float64, error)

type scratch struct {
	vals []float64
	args []float64
	out  []float64
	// acc collects the derivative so dy is written only on success.
	acc  []float64
	kind string
	name string
}

func (n *FrozenNetwork) acquire() *scratch { return n.pool.Get().(*scratch) }

func (n *FrozenNetwork) release(s *scratch) {
	s.kind, s.name = "", ""
	n.pool.Put(s)
}

// guard turns a panic raised by a user function into an EvalError naming
// the component that was running.
func (n *FrozenNetwork) guard(s *scratch, t float64, y []float64, err *error) {
	if r := recover(); r != nil {
		*err = &EvalError{Kind: s.kind, Name: s.name, Time: t, State: slices.Clone(y), Err: fmt.Errorf("panic: %v", r)}
	}
}

func (n *FrozenNetwork) checkState(t float64, y []float64) error {
	if len(y) != len(n.compounds) {
		return &EvalError{Kind: "network", Time: t, State: slices.Clone(y),
			Err: fmt.Errorf("%w: state has %d entries, network has %d compounds", ErrDimensionMismatch, len(y), len(n.compounds))}
	}
	return nil
}

func (n *FrozenNetwork) call(s *scratch, o *op) []float64 {
	s.kind, s.name = o.kind, o.name
	args := s.args[:len(o.in)]
	for i, slot := range o.in {
		args[i] = s.vals[slot]
	}
	out := s.out[:o.fn.outputs]
	o.fn.eval(args, out)
	return out
}

func (n *FrozenNetwork) nonFinite(o *op, t float64, y []float64, v float64) error {
	if n.finiteCheck && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return &EvalError{Kind: o.kind, Name: o.name, Time: t, State: slices.Clone(y), Err: ErrNonFinite}
	}
	return nil
}

// algebraic loads the state into s and evaluates forcings and modules.
func (n *FrozenNetwork) algebraic(s *scratch, t float64, y []float64) error {
	copy(s.vals, n.template)
	s.vals[0] = t
	copy(s.vals[1:], y)

	for i := range n.forcings {
		o := &n.forcings[i]
		for j, v := range n.call(s, o) {
			if err := n.nonFinite(o, t, y, v); err != nil {
				return err
			}
			s.vals[o.out[j]] = v
		}
	}
	for i := range n.modules {
		o := &n.modules[i]
		for j, v := range n.call(s, o) {
			if err := n.nonFinite(o, t, y, v); err != nil {
				return err
			}
			s.vals[o.out[j]] = v
		}
	}
	return nil
}

func (n *FrozenNetwork) rate(s *scratch, r *compiledReaction, t float64, y []float64) (float64, error) {
	v := n.call(s, &r.op)[0]
	if err := n.nonFinite(&r.op, t, y, v); err != nil {
		return 0, err
	}
	return v, nil
}

// Derive writes the derivative at (t, y) into dy without allocating. dy may
// alias y. On error dy is left untouched.
func (n *FrozenNetwork) Derive(t float64, y, dy []float64) (err error) {
	if err := n.checkState(t, y); err != nil {
		return err
	}
	if len(dy) != len(y) {
		return &EvalError{Kind: "network", Time: t, State: slices.Clone(y),
			Err: fmt.Errorf("%w: output has %d entries, want %d", ErrDimensionMismatch, len(dy), len(y))}
	}

	s := n.acquire()
	defer n.release(s)
	defer n.guard(s, t, y, &err)

	if err := n.algebraic(s, t, y); err != nil {
		return err
	}
	acc := s.acc
	clear(acc)
	for i := range n.reactions {
		r := &n.reactions[i]
		v, err := n.rate(s, r, t, y)
		if err != nil {
			return err
		}
		for _, tm := range r.terms {
			acc[tm.compound] += tm.coeff * v
		}
	}
	copy(dy, acc)
	return nil
}

// RHS returns the right-hand side as a function allocating a fresh
// derivative vector per call.
func (n *FrozenNetwork) RHS() RHSFunc {
	return func(t float64, y []float64) ([]float64, error) {
		dy := make([]float64, len(n.compounds))
		if err := n.Derive(t, y, dy); err != nil {
			return nil, err
		}
		return dy, nil
	}
}

// Fluxes returns every reaction rate at (t, y) in declaration order.
func (n *FrozenNetwork) Fluxes(t float64, y []float64) (rates []float64, err error) {
	if err := n.checkState(t, y); err != nil {
		return nil, err
	}
	s := n.acquire()
	defer n.release(s)
	defer n.guard(s, t, y, &err)

	if err := n.algebraic(s, t, y); err != nil {
		return nil, err
	}
	rates = make([]float64, len(n.reactions))
	for i := range n.reactions {
		if rates[i], err = n.rate(s, &n.reactions[i], t, y); err != nil {
			return nil, err
		}
	}
	return rates, nil
}

// EvaluateModules runs forcings and modules at (t, y) and returns the module
// outputs in the order of ModuleOutputs. Reactions are not evaluated.
func (n *FrozenNetwork) EvaluateModules(t float64, y []float64) (out []float64, err error) {
	out = make([]float64, len(n.moduleOutputs))
	if err := n.evaluateModulesInto(t, y, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *FrozenNetwork) evaluateModulesInto(t float64, y, out []float64) (err error) {
	if err := n.checkState(t, y); err != nil {
		return err
	}
	s := n.acquire()
	defer n.release(s)
	defer n.guard(s, t, y, &err)

	if err := n.algebraic(s, t, y); err != nil {
		return err
	}
	for i, name := range n.moduleOutputs {
		out[i] = s.vals[n.slots[name]]
	}
	return nil
}

// Snapshot returns every namespace value at (t, y): time, compounds,
// parameters, forcing outputs and module outputs.
func (n *FrozenNetwork) Snapshot(t float64, y []float64) (values map[string]float64, err error) {
	if err := n.checkState(t, y); err != nil {
		return nil, err
	}
	s := n.acquire()
	defer n.release(s)
	defer n.guard(s, t, y, &err)

	if err := n.algebraic(s, t, y); err != nil {
		return nil, err
	}
	values = make(map[string]float64, len(n.slotNames))
	for i, name := range n.slotNames {
		values[name] = s.vals[i]
	}
	return values, nil
}

// Diagnostics holds module outputs recovered from a saved trajectory.
type Diagnostics struct {
	Names  []string
	Times  []float64
	Values [][]float64
}

// Series returns one module output over the whole trajectory.
func (d *Diagnostics) Series(name string) ([]float64, bool) {
	j := slices.Index(d.Names, name)
	if j < 0 {
		return nil, false
	}
	out := make([]float64, len(d.Values))
	for i, row := range d.Values {
		out[i] = row[j]
	}
	return out, true
}

// EvaluateTrajectory re-runs the module graph on every saved (time, state)
// pair. It is meant for reporting after an integration run.
func (n *FrozenNetwork) EvaluateTrajectory(times []float64, states [][]float64) (*Diagnostics, error) {
	if len(times) != len(states) {
		return nil, fmt.Errorf("%w: %d times for %d states", ErrDimensionMismatch, len(times), len(states))
	}
	d := &Diagnostics{
		Names:  n.ModuleOutputs(),
		Times:  slices.Clone(times),
		Values: make([][]float64, len(states)),
	}
	for i, y := range states {
		row := make([]float64, len(n.moduleOutputs))
		if err := n.evaluateModulesInto(times[i], y, row); err != nil {
			return nil, fmt.Errorf("trajectory point %d: %w", i, err)
		}
		d.Values[i] = row
	}
	return d, nil
}

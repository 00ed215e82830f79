package network

import (
	"errors"
	"slices"

	"github.com/san-kum/rxnet/internal/dag"
)

// resolvedParameters holds every parameter value, base and derived.
type resolvedParameters struct {
	values map[string]float64
	// order lists derived parameters in evaluation order.
	order []string
}

// checkDerivedInput reports whether a derived parameter may read in.
func (b *Builder) checkDerivedInput(d *derivedParameter, in string) error {
	switch b.names[in] {
	case kindParameter, kindDerived:
		return nil
	case 0:
		if in == Time {
			return buildErr(ErrUnresolvedReference, "derived parameter", d.name,
				"input %q: derived parameters cannot depend on time", in)
		}
		return buildErr(ErrUnresolvedReference, "derived parameter", d.name, "input %q is not declared", in)
	default:
		return buildErr(ErrUnresolvedReference, "derived parameter", d.name,
			"input %q is a %s, derived parameters may only read parameters", in, b.names[in])
	}
}

// callAtBuild evaluates a single-output function during the build. A panic
// comes back as a BuildError naming the component.
func callAtBuild(fn Func, args []float64, kind, name, what string) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = buildErr(ErrFunctionPanic, kind, name, "%spanic: %v", what, r)
		}
	}()
	out := make([]float64, 1)
	fn.eval(args, out)
	return out[0], nil
}

func (b *Builder) derivedByName() map[string]*derivedParameter {
	byName := make(map[string]*derivedParameter, len(b.derived))
	for i := range b.derived {
		byName[b.derived[i].name] = &b.derived[i]
	}
	return byName
}

// resolveParameters sorts derived parameters among themselves and evaluates
// them once against the current base values.
func (b *Builder) resolveParameters() (*resolvedParameters, error) {
	values := make(map[string]float64, len(b.params)+len(b.derived))
	for _, p := range b.params {
		values[p.name] = p.value
	}

	byName := b.derivedByName()
	g := dag.New()
	for i := range b.derived {
		g.AddNode(b.derived[i].name)
	}

	for i := range b.derived {
		d := &b.derived[i]
		for _, in := range d.inputs {
			if err := b.checkDerivedInput(d, in); err != nil {
				return nil, err
			}
			if b.names[in] == kindDerived {
				if err := g.AddEdge(in, d.name); err != nil {
					return nil, err
				}
			}
		}
	}

	order, err := g.Sort()
	if err != nil {
		var cerr *dag.CycleError
		if errors.As(err, &cerr) {
			return nil, &CycleError{Graph: "derived parameters", Path: cerr.Path}
		}
		return nil, err
	}

	for _, name := range order {
		d := byName[name]
		args := make([]float64, len(d.inputs))
		for i, in := range d.inputs {
			args[i] = values[in]
		}
		if values[name], err = callAtBuild(d.fn, args, "derived parameter", d.name, ""); err != nil {
			return nil, err
		}
	}
	return &resolvedParameters{values: values, order: order}, nil
}

// resolveDerived evaluates one derived parameter and the derived parameters
// it reads, leaving the rest of the declaration alone.
func (b *Builder) resolveDerived(name string) (float64, error) {
	const (
		visiting = iota + 1
		done
	)
	byName := b.derivedByName()
	values := make(map[string]float64)
	mark := make(map[string]int)
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch mark[name] {
		case done:
			return nil
		case visiting:
			path := append(slices.Clone(stack[slices.Index(stack, name):]), name)
			slices.Reverse(path)
			return &CycleError{Graph: "derived parameters", Path: path}
		}
		mark[name] = visiting
		stack = append(stack, name)

		d := byName[name]
		args := make([]float64, len(d.inputs))
		for i, in := range d.inputs {
			if err := b.checkDerivedInput(d, in); err != nil {
				return err
			}
			if b.names[in] == kindParameter {
				args[i] = b.params[b.paramIdx[in]].value
				continue
			}
			if err := visit(in); err != nil {
				return err
			}
			args[i] = values[in]
		}
		v, err := callAtBuild(d.fn, args, "derived parameter", d.name, "")
		if err != nil {
			return err
		}
		values[name] = v
		mark[name] = done
		stack = stack[:len(stack)-1]
		return nil
	}

	if err := visit(name); err != nil {
		return 0, err
	}
	return values[name], nil
}

// GetParameter returns the value of a base or derived parameter. During the
// build phase a derived parameter is resolved from its own inputs against the
// current base values, which lets model code compute literal stoichiometric
// coefficients before the rest of the network is declared.
func (b *Builder) GetParameter(name string) (float64, error) {
	if b.frozen != nil {
		if v, ok := b.frozen.Parameter(name); ok {
			return v, nil
		}
		return 0, buildErr(ErrUnresolvedReference, "parameter", name, "no parameter with this name")
	}
	switch b.names[name] {
	case kindParameter:
		return b.params[b.paramIdx[name]].value, nil
	case kindDerived:
		return b.resolveDerived(name)
	default:
		return 0, buildErr(ErrUnresolvedReference, "parameter", name, "no parameter with this name")
	}
}

// MustGetParameter is like GetParameter but panics on error. It is meant for
// model definitions that compute stoichiometric constants from parameters
// they declared a few lines earlier.
func (b *Builder) MustGetParameter(name string) float64 {
	v, err := b.GetParameter(name)
	if err != nil {
		panic(err)
	}
	return v
}

package integrators

import (
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/rxnet/internal/sim"
)

var ErrUnknownIntegrator = errors.New("unknown integrator")

var constructors = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
	"rk45":  func() sim.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name.
func New(name string) (sim.Integrator, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownIntegrator, name, Names())
	}
	return ctor(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

package integrators

import "github.com/san-kum/rxnet/internal/sim"

// Euler is the explicit first-order method. It keeps a derivative buffer
// and must not be shared between goroutines.
type Euler struct {
	dx sim.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys sim.System, x sim.State, t float64, dt float64) (sim.State, error) {
	if len(e.dx) != len(x) {
		e.dx = make(sim.State, len(x))
	}
	if err := sys.Derive(t, x, e.dx); err != nil {
		return nil, err
	}
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*e.dx[i]
	}
	return result, nil
}

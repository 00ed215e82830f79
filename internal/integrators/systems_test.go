package integrators

import "errors"

// oscillator is x' = v, v' = -x.
type oscillator struct{}

func (oscillator) Derive(_ float64, x, dx []float64) error {
	dx[0] = x[1]
	dx[1] = -x[0]
	return nil
}

func (oscillator) Dim() int { return 2 }

func energy(x []float64) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// decay is x' = -k x.
type decay struct{ k float64 }

func (d decay) Derive(_ float64, x, dx []float64) error {
	dx[0] = -d.k * x[0]
	return nil
}

func (decay) Dim() int { return 1 }

var errBroken = errors.New("broken rhs")

// broken fails after a number of successful evaluations.
type broken struct{ after int }

func (b *broken) Derive(_ float64, _, dx []float64) error {
	if b.after <= 0 {
		return errBroken
	}
	b.after--
	dx[0] = 0
	return nil
}

func (*broken) Dim() int { return 1 }

package metrics

import (
	"math"

	"github.com/san-kum/rxnet/internal/sim"
)

// Positivity reports the share of observed states whose entries all stay
// above -tolerance. Concentrations leaving the non-negative orthant point
// to an integration step that is too large for a stiff network.
type Positivity struct {
	name       string
	tolerance  float64
	violations int
	samples    int
	minimum    float64
}

func NewPositivity(tolerance float64) *Positivity {
	return &Positivity{
		name:      "positivity",
		tolerance: tolerance,
		minimum:   math.Inf(1),
	}
}

func (p *Positivity) Name() string { return p.name }

func (p *Positivity) OnStep(x sim.State, t float64) {
	p.samples++
	violated := false
	for _, val := range x {
		p.minimum = math.Min(p.minimum, val)
		if val < -p.tolerance {
			violated = true
		}
	}
	if violated {
		p.violations++
	}
}

func (p *Positivity) Value() float64 {
	if p.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(p.violations)/float64(p.samples)
}

// Minimum is the smallest entry seen in any state, +Inf before the first.
func (p *Positivity) Minimum() float64 { return p.minimum }

func (p *Positivity) Reset() {
	p.violations = 0
	p.samples = 0
	p.minimum = math.Inf(1)
}

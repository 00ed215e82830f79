package metrics

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/rxnet/internal/sim"
)

// Conservation tracks the largest deviation of a weighted sum of state
// entries from its value at the first observed step. Weighted sums that
// span a moiety stay constant under exact arithmetic.
type Conservation struct {
	name    string
	weights []float64
	initial float64
	maxDiff float64
	samples int
}

func NewConservation(name string, weights []float64) *Conservation {
	return &Conservation{
		name:    name,
		weights: weights,
	}
}

// ConservationOf weights the named entries of names by one.
func ConservationOf(name string, names []string, members ...string) (*Conservation, error) {
	weights := make([]float64, len(names))
	for _, m := range members {
		i := slices.Index(names, m)
		if i < 0 {
			return nil, fmt.Errorf("conservation %s: unknown compound %q", name, m)
		}
		weights[i] = 1
	}
	return NewConservation(name, weights), nil
}

func (c *Conservation) Name() string { return c.name }

func (c *Conservation) total(x sim.State) float64 {
	sum := 0.0
	for i, w := range c.weights {
		if i < len(x) {
			sum += w * x[i]
		}
	}
	return sum
}

func (c *Conservation) OnStep(x sim.State, t float64) {
	total := c.total(x)
	if c.samples == 0 {
		c.initial = total
	}
	c.samples++
	c.maxDiff = math.Max(c.maxDiff, math.Abs(total-c.initial))
}

// Value is the maximum absolute drift seen so far.
func (c *Conservation) Value() float64 { return c.maxDiff }

// Reference seeds the conserved total, typically from the initial state,
// so the first integration step is already compared against it.
func (c *Conservation) Reference(x sim.State) {
	c.initial = c.total(x)
	c.samples = 1
}

func (c *Conservation) Reset() {
	c.initial = 0
	c.maxDiff = 0
	c.samples = 0
}

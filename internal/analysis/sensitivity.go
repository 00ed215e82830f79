package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/rxnet/internal/sim"
)

// PerturbFunc builds the system with one parameter multiplied by factor.
// An empty name builds the unperturbed system.
type PerturbFunc func(param string, factor float64) (sim.System, sim.State, error)

// Sensitivity holds dx/dln p of the final concentrations. Values has one
// row per parameter and one column per state component.
type Sensitivity struct {
	Parameters []string
	Base       sim.State
	Values     [][]float64
}

// Sensitivities perturbs each parameter up and down by the relative step
// rel and takes central differences of the final states. The runs share
// the worker pool of a scan. A failing run fails the whole analysis.
func Sensitivities(ctx context.Context, params []string, perturb PerturbFunc, newIntegrator func() sim.Integrator, cfg sim.Config, rel float64, workers int, opts ...sim.Option) (*Sensitivity, error) {
	if rel <= 0 {
		return nil, fmt.Errorf("analysis: relative step must be positive, got %g", rel)
	}
	up := 1 + rel

	// point 0 is the base run, 2i+1 and 2i+2 scale parameter i up and down
	points := make([]float64, 2*len(params)+1)
	for i := range points {
		points[i] = float64(i)
	}
	build := func(v float64) (sim.System, sim.State, error) {
		i := int(v)
		if i == 0 {
			return perturb("", 1)
		}
		factor := up
		if i%2 == 0 {
			factor = 1 / up
		}
		return perturb(params[(i-1)/2], factor)
	}

	results, err := sim.Scan(ctx, points, build, newIntegrator, cfg, workers, opts...)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
	}

	s := &Sensitivity{
		Parameters: params,
		Base:       results[0].Result.Final(),
		Values:     make([][]float64, len(params)),
	}
	h := 2 * math.Log(up)
	for i := range params {
		hi := results[2*i+1].Result.Final()
		lo := results[2*i+2].Result.Final()
		row := make([]float64, len(hi))
		for j := range row {
			row[j] = (hi[j] - lo[j]) / h
		}
		s.Values[i] = row
	}
	return s, nil
}

package automation

import (
	"context"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
)

// MonteCarloConfig perturbs parameters by log-normal factors exp(Spread*z)
// with z standard normal. An empty Parameters list perturbs every
// parameter of the model.
type MonteCarloConfig struct {
	Parameters []string
	Spread     float64
	Trials     int
	Seed       uint64
	Workers    int
}

// MonteCarloResult is one trial.
type MonteCarloResult struct {
	Trial      int
	Parameters map[string]float64
	Final      sim.State
	Err        error
}

// RunMonteCarlo runs the trials of cfg on the configuration base. Draws
// depend only on the seed, so repeated calls give identical trials
// regardless of scheduling.
func RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarloConfig, registry *models.Registry, opts ...sim.Option) ([]MonteCarloResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("%w: monte carlo needs at least one trial", config.ErrInvalidConfig)
	}
	if mc.Spread < 0 {
		return nil, fmt.Errorf("%w: spread must not be negative", config.ErrInvalidConfig)
	}
	m, err := registry.Get(base.Model)
	if err != nil {
		return nil, err
	}
	defaults, err := m.Parameters(base.Parameters)
	if err != nil {
		return nil, err
	}
	names := mc.Parameters
	if len(names) == 0 {
		names = slices.Sorted(maps.Keys(defaults))
	}
	for _, name := range names {
		if _, ok := defaults[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no parameter %q", models.ErrUnknownParameter, m.Name, name)
		}
	}

	rng := rand.New(rand.NewPCG(mc.Seed, mc.Seed^0x9e3779b97f4a7c15))
	draws := make([]map[string]float64, mc.Trials)
	for i := range draws {
		p := maps.Clone(defaults)
		for _, name := range names {
			p[name] *= math.Exp(mc.Spread * rng.NormFloat64())
		}
		draws[i] = p
	}

	trials := make([]float64, mc.Trials)
	for i := range trials {
		trials[i] = float64(i)
	}
	build := func(v float64) (sim.System, sim.State, error) {
		net, err := m.Build(models.Overrides{Parameters: draws[int(v)], Initial: base.Initial}, network.WithFiniteCheck(base.FiniteCheck))
		if err != nil {
			return nil, nil, err
		}
		return net, sim.State(net.InitialState()), nil
	}
	newIntegrator := func() sim.Integrator {
		integ, _ := integrators.New(base.Integrator)
		return integ
	}
	if _, err := integrators.New(base.Integrator); err != nil {
		return nil, err
	}

	scan, err := sim.Scan(ctx, trials, build, newIntegrator, base.SimConfig(), mc.Workers, opts...)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(scan))
	for i, r := range scan {
		results[i] = MonteCarloResult{Trial: i, Parameters: draws[i], Err: r.Err}
		if r.Err == nil && r.Result != nil {
			results[i].Final = r.Result.Final()
		}
	}
	return results, nil
}

// CompoundStats summarizes the final concentration of one compound over
// the successful trials.
type CompoundStats struct {
	Name string
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// MonteCarloStats computes per-compound statistics and counts the failed
// trials.
func MonteCarloStats(names []string, results []MonteCarloResult) ([]CompoundStats, int) {
	stats := make([]CompoundStats, len(names))
	for i, name := range names {
		stats[i] = CompoundStats{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
	}

	failed, n := 0, 0
	for _, r := range results {
		if r.Err != nil || len(r.Final) != len(names) {
			failed++
			continue
		}
		n++
		for i, v := range r.Final {
			s := &stats[i]
			// Welford update, Std holds the running sum of squares until the end
			d := v - s.Mean
			s.Mean += d / float64(n)
			s.Std += d * (v - s.Mean)
			s.Min = min(s.Min, v)
			s.Max = max(s.Max, v)
		}
	}
	for i := range stats {
		if n > 1 {
			stats[i].Std = math.Sqrt(stats[i].Std / float64(n-1))
		} else {
			stats[i].Std = 0
		}
		if n == 0 {
			stats[i].Mean, stats[i].Min, stats[i].Max = math.NaN(), math.NaN(), math.NaN()
		}
	}
	return stats, failed
}

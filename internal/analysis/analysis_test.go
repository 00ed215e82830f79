package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/sim"
)

type decay struct{ k float64 }

func (d decay) Derive(_ float64, x, dx []float64) error {
	dx[0] = -d.k * x[0]
	return nil
}

func (decay) Dim() int { return 1 }

func TestResample(t *testing.T) {
	times := []float64{0, 1, 3, 4}
	values := []float64{0, 1, 3, 4}

	u, h, err := Resample(times, values, 5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h, 1e-12)
	for i, v := range u {
		assert.InDelta(t, float64(i), v, 1e-12)
	}

	_, _, err = Resample([]float64{0}, []float64{1}, 4)
	assert.ErrorIs(t, err, ErrTooShort)
	_, _, err = Resample([]float64{0, 1}, []float64{1}, 4)
	assert.Error(t, err)
}

func TestDominantPeriod(t *testing.T) {
	n := 4000
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		// uneven spacing, as an adaptive run would produce
		tt := 20 * math.Pow(float64(i)/float64(n-1), 1.1)
		times[i] = tt
		values[i] = 1 + 0.5*math.Sin(2*math.Pi*tt/2)
	}

	osc, err := DominantPeriod(times, values, 2048)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, osc.Period, 0.05)
	assert.Greater(t, osc.Share, 0.5)

	flat := make([]float64, n)
	osc, err = DominantPeriod(times, flat, 256)
	require.NoError(t, err)
	assert.Zero(t, osc)
}

func TestSettled(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	relaxed := []float64{1, 0.5, 0.30, 0.3, 0.3}
	moving := []float64{1, 2, 3, 4, 5}

	assert.True(t, Settled(times, [][]float64{relaxed}, 0.5, 1e-6))
	assert.False(t, Settled(times, [][]float64{relaxed, moving}, 0.5, 1e-6))
	assert.False(t, Settled(times, [][]float64{{1, 1, 1, math.NaN(), 1}}, 0.5, 1e-6))
	assert.False(t, Settled(times[:1], [][]float64{relaxed[:1]}, 0.5, 1e-6))
}

func TestResidual(t *testing.T) {
	r, err := Residual(decay{k: 2}, 0, sim.State{-3})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, r, 1e-12)
}

func TestSensitivities(t *testing.T) {
	const k, x0, T = 0.7, 2.0, 1.5
	perturb := func(param string, factor float64) (sim.System, sim.State, error) {
		kk := k
		if param == "k" {
			kk *= factor
		}
		return decay{k: kk}, sim.State{x0}, nil
	}
	newIntegrator := func() sim.Integrator { return integrators.NewRK4() }
	cfg := sim.Config{Dt: 1e-3, Duration: T, SaveEvery: 1000}

	s, err := Sensitivities(context.Background(), []string{"k"}, perturb, newIntegrator, cfg, 1e-3, 2)
	require.NoError(t, err)
	require.Len(t, s.Values, 1)

	final := x0 * math.Exp(-k*T)
	assert.InDelta(t, final, s.Base[0], 1e-9)
	// d x(T) / d ln k = -k T x(T)
	assert.InDelta(t, -k*T*final, s.Values[0][0], 1e-5)

	_, err = Sensitivities(context.Background(), []string{"k"}, perturb, newIntegrator, cfg, 0, 2)
	assert.Error(t, err)
}

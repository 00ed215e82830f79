package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decay is dx/dt = -k x.
type decay struct{ k float64 }

func (d decay) Derive(_ float64, x, dx []float64) error {
	dx[0] = -d.k * x[0]
	return nil
}

func (decay) Dim() int { return 1 }

type failing struct{ err error }

func (f failing) Derive(float64, []float64, []float64) error { return f.err }
func (failing) Dim() int                                    { return 1 }

type blowup struct{}

func (blowup) Derive(_ float64, _, dx []float64) error {
	dx[0] = math.NaN()
	return nil
}

func (blowup) Dim() int { return 1 }

type euler struct{}

func (euler) Step(sys System, x State, t, dt float64) (State, error) {
	dx := make(State, len(x))
	if err := sys.Derive(t, x, dx); err != nil {
		return nil, err
	}
	return x.Add(dx.Scale(dt)), nil
}

type recorder struct {
	mu    sync.Mutex
	steps int
	ends  int
	err   error
}

func (r *recorder) OnStep(State, float64) {
	r.mu.Lock()
	r.steps++
	r.mu.Unlock()
}

func (r *recorder) OnRunEnd(_ *Result, err error) {
	r.mu.Lock()
	r.ends++
	r.err = err
	r.mu.Unlock()
}

func fixedConfig() Config {
	cfg := DefaultConfig()
	cfg.Dt = 0.1
	cfg.Duration = 1.0
	return cfg
}

func TestSimulatorRun(t *testing.T) {
	rec := &recorder{}
	s := New(decay{k: 1}, euler{}, WithObserver(rec))

	res, err := s.Run(context.Background(), State{1}, fixedConfig())
	require.NoError(t, err)

	require.Len(t, res.States, 11)
	require.Len(t, res.Times, 11)
	assert.Equal(t, 0.0, res.Times[0])
	assert.Equal(t, 1.0, res.Times[10])
	assert.InDelta(t, math.Pow(0.9, 10), res.Final()[0], 1e-12)
	assert.Equal(t, 10, res.StepsTaken)
	assert.Equal(t, 10, res.Evaluations)
	assert.Equal(t, 10, rec.steps)
	assert.Equal(t, 1, rec.ends)
	assert.NoError(t, rec.err)
}

func TestSimulatorSaveEvery(t *testing.T) {
	cfg := fixedConfig()
	cfg.SaveEvery = 3

	res, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1}, cfg)
	require.NoError(t, err)

	assert.Len(t, res.States, 5)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.6, 0.9, 1.0}, res.Times, 1e-12)
	assert.InDelta(t, math.Pow(0.9, 10), res.Final()[0], 1e-12)
}

func TestSimulatorDoesNotMutateInitialState(t *testing.T) {
	x0 := State{1}
	_, err := New(decay{k: 1}, euler{}).Run(context.Background(), x0, fixedConfig())
	require.NoError(t, err)
	assert.Equal(t, State{1}, x0)
}

func TestSimulatorStepDoubling(t *testing.T) {
	cfg := fixedConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 1e-3

	res, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Times[len(res.Times)-1])
	assert.InDelta(t, math.Exp(-1), res.Final()[0], 0.02)
	assert.Positive(t, res.Rejected)
	assert.Greater(t, res.StepsTaken, 10)
}

func TestSimulatorErrors(t *testing.T) {
	sentinel := errors.New("rhs exploded")

	t.Run("invalid config", func(t *testing.T) {
		cfg := fixedConfig()
		cfg.Dt = 0
		_, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1}, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("dimension", func(t *testing.T) {
		_, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1, 2}, fixedConfig())
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("derive error", func(t *testing.T) {
		rec := &recorder{}
		_, err := New(failing{err: sentinel}, euler{}, WithObserver(rec)).Run(context.Background(), State{1}, fixedConfig())
		require.ErrorIs(t, err, sentinel)

		var simErr *SimulationError
		require.ErrorAs(t, err, &simErr)
		assert.Equal(t, 0, simErr.Step)
		assert.ErrorIs(t, rec.err, sentinel)
	})

	t.Run("invalid state", func(t *testing.T) {
		res, err := New(blowup{}, euler{}).Run(context.Background(), State{1}, fixedConfig())
		require.ErrorIs(t, err, ErrInvalidState)
		assert.Len(t, res.States, 1)
	})

	t.Run("invalid state unchecked", func(t *testing.T) {
		cfg := fixedConfig()
		cfg.ValidateState = false
		res, err := New(blowup{}, euler{}).Run(context.Background(), State{1}, cfg)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(res.Final()[0]))
	})

	t.Run("too many steps", func(t *testing.T) {
		cfg := fixedConfig()
		cfg.Adaptive = true
		cfg.MaxSteps = 3
		_, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1}, cfg)
		assert.ErrorIs(t, err, ErrTooManySteps)
	})

	t.Run("step too small", func(t *testing.T) {
		cfg := fixedConfig()
		cfg.Adaptive = true
		cfg.Tolerance = 1e-20
		cfg.MinDt = 1e-3
		_, err := New(decay{k: 1}, euler{}).Run(context.Background(), State{1}, cfg)
		assert.ErrorIs(t, err, ErrStepTooSmall)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(decay{k: 1}, euler{}).Run(ctx, State{1}, fixedConfig())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunWithCallback(t *testing.T) {
	var times []float64
	err := New(decay{k: 1}, euler{}).RunWithCallback(context.Background(), State{1}, fixedConfig(), func(x State, t float64) bool {
		times = append(times, t)
		return len(times) < 3
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, times, 1e-12)
}

func TestScan(t *testing.T) {
	build := func(k float64) (System, State, error) {
		if k < 0 {
			return nil, nil, errors.New("negative rate")
		}
		return decay{k: k}, State{1}, nil
	}
	newIntegrator := func() Integrator { return euler{} }

	values := []float64{1, 2, -1, 3}
	results, err := Scan(context.Background(), values, build, newIntegrator, fixedConfig(), 2)
	require.NoError(t, err)
	require.Len(t, results, len(values))

	for i, r := range results {
		assert.Equal(t, values[i], r.Value)
		if values[i] < 0 {
			assert.ErrorContains(t, r.Err, "negative rate")
			assert.Nil(t, r.Result)
			continue
		}
		require.NoError(t, r.Err)
		assert.InDelta(t, math.Pow(1-0.1*values[i], 10), r.Result.Final()[0], 1e-12)
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	build := func(k float64) (System, State, error) { return decay{k: k}, State{1}, nil }
	_, err := Scan(ctx, []float64{1, 2}, build, func() Integrator { return euler{} }, fixedConfig(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

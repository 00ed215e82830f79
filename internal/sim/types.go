package sim

import (
	"math"
	"time"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE right-hand side. Derive
// writes f(t, x) into dx, which has the same length as x.
type System interface {
	Derive(t float64, x, dx []float64) error
	Dim() int
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// StepInfo describes one accepted adaptive step.
type StepInfo struct {
	Taken    float64
	Proposed float64
	Rejected int
}

// AdaptiveIntegrator retries internally until the local error is within
// tol, shrinking the step no further than minDt.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol, minDt float64) (State, StepInfo, error)
}

type Observer interface {
	OnStep(x State, t float64)
}

// RunObserver is notified once a run has finished, successfully or not.
type RunObserver interface {
	OnRunEnd(res *Result, err error)
}

type Config struct {
	Dt            float64
	Duration      float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	MaxSteps      int
	Adaptive      bool
	ValidateState bool
	// SaveEvery keeps every n-th accepted step in the result. The final
	// state is always kept.
	SaveEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         0.1,
		MinDt:         1e-12,
		MaxSteps:      10_000_000,
		Adaptive:      false,
		ValidateState: true,
		SaveEvery:     1,
	}
}

type Result struct {
	States      []State
	Times       []float64
	StepsTaken  int
	Rejected    int
	Evaluations int
	Elapsed     time.Duration
}

// Final returns the last saved state.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

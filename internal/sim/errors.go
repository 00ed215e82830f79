package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("sim: adaptive timestep below minimum")

	// ErrTooManySteps indicates the run exceeded Config.MaxSteps.
	ErrTooManySteps = errors.New("sim: step limit exceeded")

	// ErrDimensionMismatch indicates an initial state that does not fit the system.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and system")

	// ErrInvalidConfig indicates unusable run settings.
	ErrInvalidConfig = errors.New("sim: invalid config")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

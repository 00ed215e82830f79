package network

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for network construction and evaluation.
var (
	// ErrDuplicateName indicates a name already used in the shared namespace,
	// or a collision with the reserved "time" input.
	ErrDuplicateName = errors.New("network: duplicate name")

	// ErrUnresolvedReference indicates an input that does not resolve to a
	// name the component is allowed to read.
	ErrUnresolvedReference = errors.New("network: unresolved reference")

	// ErrCycle indicates a cyclic dependency among derived parameters or modules.
	ErrCycle = errors.New("network: dependency cycle")

	// ErrMissingInput indicates a value read before it was produced. The
	// validator rules this out, so seeing it means the validator is wrong.
	ErrMissingInput = errors.New("network: missing input")

	// ErrFrozenNetwork indicates a mutation attempted after Finalize.
	ErrFrozenNetwork = errors.New("network: network is frozen")

	// ErrArityMismatch indicates declared inputs, outputs or dependency
	// metadata that disagree with the function they describe.
	ErrArityMismatch = errors.New("network: arity mismatch")

	// ErrDimensionMismatch indicates a state or output vector of the wrong length.
	ErrDimensionMismatch = errors.New("network: dimension mismatch")

	// ErrNonFinite indicates a NaN or Inf value when finite checking is on.
	ErrNonFinite = errors.New("network: non-finite value")

	// ErrFunctionPanic indicates a derived parameter or coefficient whose
	// function panicked while the builder evaluated it.
	ErrFunctionPanic = errors.New("network: function panicked")
)

// BuildError wraps a build-time failure with the component it concerns.
type BuildError struct {
	Kind   string
	Name   string
	Detail string
	Err    error
}

func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Kind != "" || e.Name != "" {
		fmt.Fprintf(&sb, " (%s %q)", e.Kind, e.Name)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(err error, kind, name, format string, args ...any) *BuildError {
	return &BuildError{Kind: kind, Name: name, Detail: fmt.Sprintf(format, args...), Err: err}
}

// CycleError reports a dependency cycle found at Finalize.
type CycleError struct {
	// Graph is either "derived parameters" or "modules".
	Graph string
	// Path lists the cycle in evaluation order; the first name is repeated last.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("network: dependency cycle among %s: %s", e.Graph, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// EvalError wraps a failure during evaluation with the component that raised
// it, the evaluation time and a copy of the state vector.
type EvalError struct {
	Kind  string
	Name  string
	Time  float64
	State []float64
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s %q at t=%g: %v (state=%v)", e.Kind, e.Name, e.Time, e.Err, e.State)
}

func (e *EvalError) Unwrap() error { return e.Err }

package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ScanResult is one point of a parameter scan. Err holds a failure of
// that point only; other points keep running.
type ScanResult struct {
	Value  float64
	Result *Result
	Err    error
}

// BuildFunc builds the system and initial state for one scanned value.
type BuildFunc func(v float64) (System, State, error)

// Scan runs one simulation per value on at most workers goroutines and
// returns the results in the order of values. Integrators are created per
// point since they may carry scratch buffers. A cancelled context aborts
// the remaining points and is returned as the error.
func Scan(ctx context.Context, values []float64, build BuildFunc, newIntegrator func() Integrator, cfg Config, workers int, opts ...Option) ([]ScanResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]ScanResult, len(values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range values {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i].Value = v

			sys, x0, err := build(v)
			if err != nil {
				results[i].Err = fmt.Errorf("build for %g: %w", v, err)
				return nil
			}
			res, err := New(sys, newIntegrator(), opts...).Run(ctx, x0, cfg)
			results[i].Result = res
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Err = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

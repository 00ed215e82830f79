package analysis

import (
	"math"

	"github.com/san-kum/rxnet/internal/sim"
)

// Residual is the largest absolute rate of change of any compound at x.
// It is zero at a steady state.
func Residual(sys sim.System, t float64, x sim.State) (float64, error) {
	dx := make([]float64, len(x))
	if err := sys.Derive(t, x, dx); err != nil {
		return 0, err
	}
	r := 0.0
	for _, v := range dx {
		r = max(r, math.Abs(v))
	}
	return r, nil
}

// Settled reports whether every series varied by at most tol*(1+|scale|)
// over the trailing fraction window of the run, where scale is the
// largest magnitude the series reached in that window.
func Settled(times []float64, series [][]float64, window, tol float64) bool {
	if len(times) < 2 {
		return false
	}
	t0, t1 := times[0], times[len(times)-1]
	start := t1 - window*(t1-t0)

	for _, s := range series {
		lo, hi, scale := math.Inf(1), math.Inf(-1), 0.0
		for k, t := range times {
			if t < start {
				continue
			}
			v := s[k]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
			lo, hi = min(lo, v), max(hi, v)
			scale = max(scale, math.Abs(v))
		}
		if hi-lo > tol*(1+scale) {
			return false
		}
	}
	return true
}

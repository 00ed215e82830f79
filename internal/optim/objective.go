package optim

import (
	"fmt"
	"math"
	"slices"
)

// TargetError is the sum over targets of the squared error of x relative
// to the target value. Targets at or near zero are compared absolutely.
func TargetError(names []string, x []float64, targets map[string]float64) (float64, error) {
	sum := 0.0
	for name, want := range targets {
		i := slices.Index(names, name)
		if i < 0 || i >= len(x) {
			return 0, fmt.Errorf("optim: no compound %q", name)
		}
		d := (x[i] - want) / max(math.Abs(want), 1e-12)
		if math.Abs(want) < 1e-12 {
			d = x[i] - want
		}
		sum += d * d
	}
	return sum, nil
}

// Linspace returns n values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	out[n-1] = hi
	return out
}

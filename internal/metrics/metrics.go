// Package metrics accumulates scalar run summaries from the states a
// simulator visits. Metrics are sim.Observers and are not safe for
// concurrent use; give each run its own set.
package metrics

import "github.com/san-kum/rxnet/internal/sim"

type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Collect evaluates every metric into a map keyed by name.
func Collect(ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

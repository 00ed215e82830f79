package ratelaws

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinetics(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"mass action 1", MassAction1(3, 2), 6},
		{"mass action 2", MassAction2(3, 2, 0.5), 3},
		{"reversible at equilibrium", MassAction22Rev(1, 2, 1, 1, 10, 0.5), 0},
		{"reversible forward", MassAction22Rev(1, 1, 0, 0, 10, 2), 10},
		{"michaelis menten at km", MichaelisMenten(2, 10, 2), 5},
		{"proportional", Proportional(8.3e-3, 298), 8.3e-3 * 298},
		{"rapid eq 1-1 at equilibrium", RapidEq11(1, 3, 1e8, 3), 0},
		{"rapid eq 2-1", RapidEq21(2, 3, 12, 1, 2), 0},
		{"rapid eq 2-2", RapidEq22(2, 3, 1, 1, 1, 1), 5},
		{"rapid eq 3-3", RapidEq33(1, 1, 1, 1, 1, 1, 2, 0.5), -2},
		{"moiety 1", Moiety1(1.5, 4), 2.5},
		{"moiety 2", Moiety2(1, 0.5, 2.5), 1},
		{"moiety 3", Moiety3(0.5, 0.5, 0.5, 2.5), 1},
		{"normalize", Normalize(1, 4), 0.25},
		{"normalize 2", Normalize2(1, 1, 4), 0.5},
		{"hill at half saturation", Hill(2, 2, 5), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 1e-12)
		})
	}
}

func TestEquilibriumConstants(t *testing.T) {
	rt := Proportional(8.3e-3, 298)
	const f = 96.485

	// Electrons flow downhill from FA (-0.55 V) to Fd (-0.43 V).
	assert.Greater(t, KeqFAFd(-0.550, f, -0.430, rt), 1.0)
	assert.Greater(t, KeqPCP700(0.380, f, 0.480, rt), 1.0)
	assert.InDelta(t, 1.0, KeqFAFd(-0.4, f, -0.4, rt), 1e-12)

	want := math.Exp(0.12 * f / rt)
	assert.InDelta(t, want, KeqFAFd(-0.550, f, -0.430, rt), want*1e-12)

	dgPH := DGpH(8.3e-3, 298)
	assert.InDelta(t, math.Ln10*rt, dgPH, 1e-12)

	// A more acidic lumen favours ATP synthesis.
	assert.Greater(t,
		KeqATP(5.5, 30.6, dgPH, 14.0/3, 7.9, 0.01, rt),
		KeqATP(7.0, 30.6, dgPH, 14.0/3, 7.9, 0.01, rt))
	assert.Greater(t,
		KeqCytb6f(7.5, f, 0.354, 0.380, 7.9, rt, dgPH),
		KeqCytb6f(5.5, f, 0.354, 0.380, 7.9, rt, dgPH))

	for _, k := range []float64{
		KeqPQred(-0.140, f, 0.354, 7.9, dgPH, rt),
		KeqCyc(-0.430, f, 0.354, 7.9, dgPH, rt),
		KeqFNR(-0.430, f, -0.113, 7.9, dgPH, rt),
	} {
		assert.False(t, math.IsNaN(k) || math.IsInf(k, 0))
		assert.Positive(t, k)
	}
}

func TestPH(t *testing.T) {
	for _, pH := range []float64{5.5, 6.2, 7.9} {
		assert.InDelta(t, pH, LumenPH(ProtonsAtPH(pH)), 1e-12)
	}
	assert.InDelta(t, 7.9, StromaPH(math.Pow(10, -7.9)/3.2e-5), 1e-12)
	assert.InDelta(t, 3.2e4*math.Pow(10, -7.9), StromaProtons(7.9), 1e-15)
	assert.InDelta(t, 1000*math.Pow(10, -7.9), StromaProtonsMolar(7.9), 1e-18)
}

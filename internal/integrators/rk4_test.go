package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rxnet/internal/sim"
)

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := sim.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		var err error
		x, err = integ.Step(oscillator{}, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4Decay(t *testing.T) {
	integ := NewRK4()
	x := sim.State{1.0}
	for i := 0; i < 10; i++ {
		x, _ = integ.Step(decay{k: 1}, x, float64(i)*0.1, 0.1)
	}
	if diff := math.Abs(x[0] - math.Exp(-1)); diff > 1e-6 {
		t.Errorf("decay error %e exceeds 1e-6", diff)
	}
}

func TestEulerStep(t *testing.T) {
	x, err := NewEuler().Step(decay{k: 2}, sim.State{3}, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[0]-2.4) > 1e-12 {
		t.Errorf("Euler step = %v, want 2.4", x[0])
	}
}

func TestStepErrorsPropagate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := New(name)
			if err != nil {
				t.Fatal(err)
			}
			// Fail on a later stage so partial work is discarded too.
			_, err = integ.Step(&broken{after: 1}, sim.State{1}, 0, 0.1)
			if name == "euler" {
				if err != nil {
					t.Fatalf("euler evaluates once, got %v", err)
				}
				_, err = integ.Step(&broken{}, sim.State{1}, 0, 0.1)
			}
			if !errors.Is(err, errBroken) {
				t.Errorf("expected errBroken, got %v", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, err := New("rk45"); err != nil {
		t.Fatalf("rk45: %v", err)
	}
	integ, _ := New("rk45")
	if _, ok := integ.(sim.AdaptiveIntegrator); !ok {
		t.Error("rk45 should be adaptive")
	}
	integ, _ = New("rk4")
	if _, ok := integ.(sim.AdaptiveIntegrator); ok {
		t.Error("rk4 should not be adaptive")
	}

	_, err := New("verlet")
	if !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("expected ErrUnknownIntegrator, got %v", err)
	}
}

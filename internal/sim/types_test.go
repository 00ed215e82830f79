package sim

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	cases := map[string]struct {
		conc State
		ok   bool
	}{
		"no compounds":     {State{}, true},
		"mixed levels":     {State{0.5, 1e-9, 12}, true},
		"depleted":         {State{0, 0, 0}, true},
		"nan after blowup": {State{0.2, math.NaN()}, false},
		"overflow":         {State{math.Inf(1)}, false},
		"negative runaway": {State{3, math.Inf(-1)}, false},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if got := c.conc.IsValid(); got != c.ok {
				t.Errorf("IsValid(%v) = %v, want %v", c.conc, got, c.ok)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	cases := []struct {
		conc State
		want float64
	}{
		{State{0.6, 0.8}, 1},
		{State{2, 0, 0}, 2},
		{State{}, 0},
		{State{0.5, 0.5, 0.5, 0.5}, 1},
	}

	for _, c := range cases {
		if got := c.conc.Norm(); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Norm(%v) = %v, want %v", c.conc, got, c.want)
		}
	}
}

func TestState_EulerUpdate(t *testing.T) {
	// x + dt*dx for a two-compound conversion A -> B.
	x := State{1, 0}
	dx := State{-0.5, 0.5}

	next := x.Add(dx.Scale(0.1))
	if math.Abs(next[0]-0.95) > 1e-15 || math.Abs(next[1]-0.05) > 1e-15 {
		t.Fatalf("Euler update = %v, want [0.95 0.05]", next)
	}

	back := next.Sub(x)
	if math.Abs(back[0]+0.05) > 1e-15 || math.Abs(back[1]-0.05) > 1e-15 {
		t.Errorf("Sub = %v, want [-0.05 0.05]", back)
	}
	if x[0] != 1 || x[1] != 0 {
		t.Errorf("arithmetic mutated its receiver: %v", x)
	}
}

func TestState_Clone(t *testing.T) {
	x := State{1, 2}
	c := x.Clone()
	c[0] = 7
	if x[0] != 1 {
		t.Error("Clone shares backing storage")
	}
}

func TestStatePool(t *testing.T) {
	pool := NewStatePool(3)

	buf := pool.Get()
	if len(buf) != 3 {
		t.Fatalf("Get returned %d slots, want 3", len(buf))
	}
	buf[0], buf[2] = 4, 5
	pool.Put(buf)

	// A foreign-sized vector is dropped rather than poisoning the pool.
	pool.Put(State{1, 2, 3, 4})

	for range 4 {
		s := pool.Get()
		if len(s) != 3 {
			t.Fatalf("Get returned %d slots after mismatched Put", len(s))
		}
		for i, v := range s {
			if v != 0 {
				t.Fatalf("recycled vector not cleared: s[%d] = %v", i, v)
			}
		}
	}
}

func TestStatePool_GetAndCopy(t *testing.T) {
	pool := NewStatePool(2)
	snapshot := State{0.3, 0.7}

	dup := pool.GetAndCopy(snapshot)
	if dup[0] != 0.3 || dup[1] != 0.7 {
		t.Fatalf("GetAndCopy = %v, want %v", dup, snapshot)
	}
	dup[1] = 0
	if snapshot[1] != 0.7 {
		t.Error("GetAndCopy aliases its source")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 || cfg.Duration <= 0 || cfg.Tolerance <= 0 {
		t.Errorf("non-positive step settings: %+v", cfg)
	}
	if cfg.MinDt >= cfg.Dt || cfg.Dt > cfg.MaxDt {
		t.Errorf("step bounds out of order: min %v dt %v max %v", cfg.MinDt, cfg.Dt, cfg.MaxDt)
	}
	if cfg.SaveEvery != 1 {
		t.Errorf("SaveEvery = %d, want every step kept", cfg.SaveEvery)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Time: 2.25, Step: 9, Wrapped: ErrInvalidState}
	want := "step 9 (t=2.25): sim: invalid state (NaN or Inf detected)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimulationError does not unwrap to its cause")
	}
}

func TestResult_Final(t *testing.T) {
	var r Result
	if r.Final() != nil {
		t.Error("empty result should have no final state")
	}
	r.States = []State{{1, 0}, {0.4, 0.6}}
	if got := r.Final(); got[1] != 0.6 {
		t.Errorf("Final() = %v, want [0.4 0.6]", got)
	}
}

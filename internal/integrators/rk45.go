package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/rxnet/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand-Prince embedded pair. Local error is measured
// against 1 + |x| per component so that species near zero are held to an
// absolute tolerance. Stage buffers make it unsafe for concurrent use.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k     [7]sim.State
	stage sim.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) != n {
		for i := range r.k {
			r.k[i] = make(sim.State, n)
		}
		r.stage = make(sim.State, n)
	}
}

// Step takes one fifth-order step of exactly dt without error control.
func (r *RK45) Step(sys sim.System, x sim.State, t, dt float64) (sim.State, error) {
	xNew, _, err := r.attempt(sys, x, t, dt)
	return xNew, err
}

// StepAdaptive shrinks dt until the scaled error estimate is within tol.
func (r *RK45) StepAdaptive(sys sim.System, x sim.State, t, dt, tol, minDt float64) (sim.State, sim.StepInfo, error) {
	var info sim.StepInfo
	for {
		xNew, errMax, err := r.attempt(sys, x, t, dt)
		if err != nil {
			return nil, info, err
		}

		errRatio := errMax / tol
		if errRatio <= 1 {
			info.Taken = dt
			if errRatio > 0 {
				info.Proposed = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				info.Proposed = dt * r.maxScale
			}
			return xNew, info, nil
		}

		scale := r.minScale
		if !math.IsNaN(errRatio) && !math.IsInf(errRatio, 0) {
			scale = math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		}
		dt *= scale
		info.Rejected++
		if dt < minDt {
			return nil, info, fmt.Errorf("%w: dt=%g at t=%g", sim.ErrStepTooSmall, dt, t)
		}
	}
}

func (r *RK45) attempt(sys sim.System, x sim.State, t, dt float64) (sim.State, float64, error) {
	n := len(x)
	r.ensureScratch(n)
	k1, k2, k3, k4, k5, k6, k7 := r.k[0], r.k[1], r.k[2], r.k[3], r.k[4], r.k[5], r.k[6]

	if err := sys.Derive(t, x, k1); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*b21*k1[i]
	}
	if err := sys.Derive(t+a2*dt, r.stage, k2); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	if err := sys.Derive(t+a3*dt, r.stage, k3); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	if err := sys.Derive(t+a4*dt, r.stage, k4); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	if err := sys.Derive(t+a5*dt, r.stage, k5); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	if err := sys.Derive(t+dt, r.stage, k6); err != nil {
		return nil, 0, err
	}

	xNew := make(sim.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	if err := sys.Derive(t+dt, xNew, k7); err != nil {
		return nil, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := 1 + math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		e := math.Abs(errEst) / scale
		if math.IsNaN(e) {
			return xNew, math.Inf(1), nil
		}
		errMax = math.Max(errMax, e)
	}

	return xNew, errMax, nil
}

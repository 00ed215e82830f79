package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

type Option func(*Simulator)

// WithLogger sets the run logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

type Simulator struct {
	sys        System
	integrator Integrator
	observers  []Observer
	logger     *slog.Logger
}

func New(sys System, integrator Integrator, opts ...Option) *Simulator {
	s := &Simulator{
		sys:        sys,
		integrator: integrator,
		observers:  make([]Observer, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// counted counts right-hand side evaluations of one run.
type counted struct {
	System
	n int
}

func (c *counted) Derive(t float64, x, dx []float64) error {
	c.n++
	return c.System.Derive(t, x, dx)
}

// Run integrates from x0 at t=0 to cfg.Duration. On failure it returns the
// trajectory up to the last accepted step together with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States: make([]State, 0, min(steps, 100_000)/max(cfg.SaveEvery, 1)+2),
		Times:  make([]float64, 0, min(steps, 100_000)/max(cfg.SaveEvery, 1)+2),
	}
	saveEvery := max(cfg.SaveEvery, 1)

	result.States = append(result.States, x0.Clone())
	result.Times = append(result.Times, 0)

	accepted := 0
	var lastX State
	var lastT float64
	err := s.loop(ctx, x0, cfg, result, func(x State, t float64) bool {
		accepted++
		lastX, lastT = x, t
		if accepted%saveEvery == 0 {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}
		return true
	})
	if lastX != nil && accepted%saveEvery != 0 {
		result.States = append(result.States, lastX.Clone())
		result.Times = append(result.Times, lastT)
	}
	return result, err
}

// RunWithCallback integrates like Run without keeping a trajectory. The
// callback sees every accepted step and stops the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}
	return s.loop(ctx, x0, cfg, &Result{}, callback)
}

func (s *Simulator) loop(ctx context.Context, x0 State, cfg Config, result *Result, visit func(State, float64) bool) (err error) {
	sys := &counted{System: s.sys}
	start := time.Now()
	s.logger.Info("run started",
		"dim", len(x0),
		"duration", cfg.Duration,
		"dt", cfg.Dt,
		"adaptive", cfg.Adaptive,
	)
	defer func() {
		result.Evaluations = sys.n
		result.Elapsed = time.Since(start)
		for _, obs := range s.observers {
			if ro, ok := obs.(RunObserver); ok {
				ro.OnRunEnd(result, err)
			}
		}
		if err != nil {
			s.logger.Warn("run failed", "steps", result.StepsTaken, "error", err)
			return
		}
		s.logger.Info("run finished",
			"steps", result.StepsTaken,
			"rejected", result.Rejected,
			"evaluations", result.Evaluations,
			"elapsed", result.Elapsed,
		)
	}()

	if cfg.Adaptive {
		return s.adaptive(ctx, sys, x0.Clone(), cfg, result, visit)
	}
	return s.fixed(ctx, sys, x0.Clone(), cfg, result, visit)
}

func (s *Simulator) fixed(ctx context.Context, sys System, x State, cfg Config, result *Result, visit func(State, float64) bool) error {
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	t := 0.0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		next, err := s.integrator.Step(sys, x, t, cfg.Dt)
		if err != nil {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}
		if cfg.ValidateState && !next.IsValid() {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}

		x = next
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++
		s.notify(x, t)
		if !visit(x, t) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) adaptive(ctx context.Context, sys System, x State, cfg Config, result *Result, visit func(State, float64) bool) error {
	t := 0.0
	dt := cfg.Dt
	if cfg.MaxDt > 0 {
		dt = math.Min(dt, cfg.MaxDt)
	}

	for i := 0; t < cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if cfg.MaxSteps > 0 && i >= cfg.MaxSteps {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrTooManySteps}
		}

		h := math.Min(dt, cfg.Duration-t)
		next, info, err := s.adaptiveStep(sys, x, t, h, cfg)
		result.Rejected += info.Rejected
		if err != nil {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}
		if cfg.ValidateState && !next.IsValid() {
			return &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}

		x = next
		t += info.Taken
		if cfg.Duration-t <= 1e-12*cfg.Duration {
			t = cfg.Duration
		}
		dt = info.Proposed
		if cfg.MaxDt > 0 {
			dt = math.Min(dt, cfg.MaxDt)
		}
		dt = math.Max(dt, cfg.MinDt)

		result.StepsTaken++
		s.notify(x, t)
		if !visit(x, t) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) adaptiveStep(sys System, x State, t, dt float64, cfg Config) (State, StepInfo, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(sys, x, t, dt, cfg.Tolerance, cfg.MinDt)
	}

	// Step doubling: compare one full step with two half steps.
	var info StepInfo
	for {
		x1, err := s.integrator.Step(sys, x, t, dt)
		if err != nil {
			return nil, info, err
		}
		xHalf, err := s.integrator.Step(sys, x, t, dt/2)
		if err != nil {
			return nil, info, err
		}
		x2, err := s.integrator.Step(sys, xHalf, t+dt/2, dt/2)
		if err != nil {
			return nil, info, err
		}

		errNorm := x1.Sub(x2).Norm()
		if errNorm > cfg.Tolerance {
			if dt/2 < cfg.MinDt {
				return nil, info, fmt.Errorf("%w: dt=%g", ErrStepTooSmall, dt/2)
			}
			dt /= 2
			info.Rejected++
			continue
		}

		info.Taken, info.Proposed = dt, dt
		if errNorm < cfg.Tolerance/10 {
			info.Proposed = dt * 2
		}
		return x2, info, nil
	}
}

func (s *Simulator) notify(x State, t float64) {
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	if len(x0) != s.sys.Dim() {
		return fmt.Errorf("%w: state has %d entries, system has %d", ErrDimensionMismatch, len(x0), s.sys.Dim())
	}
	return nil
}

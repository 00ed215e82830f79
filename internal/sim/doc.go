// Package sim drives an integrator over a [System] for one run or for a
// parameter scan.
//
//   - [State]: state vector in compound declaration order
//   - [System]: right-hand side dX/dt = f(t, X)
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Simulator]: fixed or adaptive stepping with cancellation
//   - [Scan]: independent runs over parameter values, in parallel
//
// # Example
//
//	net, _ := models.Decay().Build(models.Overrides{})
//	s := sim.New(net, integrators.NewRK4())
//	result, _ := s.Run(ctx, net.InitialState(), sim.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe, and integrators keep scratch
// buffers. [Scan] creates a fresh system and integrator per run.
package sim

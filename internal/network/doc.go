// Package network assembles reaction networks from declarative pieces and
// evaluates their right-hand side for an external integrator.
//
// A [Builder] collects the pieces of a model:
//
//   - compounds: state variables integrated by the caller
//   - parameters and derived parameters (resolved once)
//   - forcings: pure functions of time and parameters
//   - algebraic modules: derived quantities recomputed on every call
//   - reactions: rate laws paired with stoichiometric coefficients
//
// [Builder.Finalize] validates the whole declaration, fixes the module
// evaluation order and returns an immutable [FrozenNetwork]. Every name an
// input list mentions is bound to a fixed slot at that point, so the hot path
// never looks names up.
//
// # Example
//
//	b := network.NewBuilder()
//	_ = b.AddCompound("X", 3)
//	_ = b.AddCompound("Y", 0)
//	_ = b.AddParameter("k", 2)
//	_ = b.AddReaction(network.Reaction{
//		Name:          "conversion",
//		Fn:            network.F2(func(x, k float64) float64 { return k * x }),
//		Inputs:        []string{"X", "k"},
//		Stoichiometry: map[string]float64{"X": -1, "Y": 1},
//	})
//	net, err := b.Finalize()
//	dy, err := net.RHS()(0, []float64{3, 0}) // [-6 6]
//
// # Thread Safety
//
// Builder is NOT thread-safe. A FrozenNetwork is read-only: its evaluation
// methods may be called concurrently as long as every call passes its own
// state and output slices.
package network

// Package analysis inspects trajectories of reaction networks.
//
//   - [DominantPeriod]: strongest oscillation of a compound, from its spectrum
//   - [Settled] and [Residual]: whether a run has reached a steady state
//   - [Sensitivities]: response of final concentrations to parameter changes
//
// Adaptive runs are sampled unevenly, so spectral tools resample onto a
// uniform grid first:
//
//	osc, err := analysis.DominantPeriod(run.Times, x, 1024)
//	if err == nil && osc.Share > 0.5 {
//	    fmt.Printf("period %.3g\n", osc.Period)
//	}
package analysis

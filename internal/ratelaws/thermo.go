package ratelaws

import "math"

// DGpH is the free energy of one pH unit, ln(10)*R*T.
func DGpH(r, t float64) float64 { return math.Ln10 * r * t }

func boltzmann(dg, rt float64) float64 { return math.Exp(-dg / rt) }

// KeqFAFd is the equilibrium constant of electron transfer from FA to
// ferredoxin.
func KeqFAFd(e0FA, f, e0Fd, rt float64) float64 {
	dg1 := -e0FA * f
	dg2 := -e0Fd * f
	return boltzmann(-dg1+dg2, rt)
}

// KeqPCP700 is the equilibrium constant of electron transfer from
// plastocyanin to P700.
func KeqPCP700(e0PC, f, e0P700, rt float64) float64 {
	dg1 := -e0PC * f
	dg2 := -e0P700 * f
	return boltzmann(-dg1+dg2, rt)
}

// KeqPQred is the equilibrium constant of plastoquinone reduction at QB.
func KeqPQred(e0QA, f, e0PQ, pHStroma, dgPH, rt float64) float64 {
	dg1 := -e0QA * f
	dg2 := -2 * e0PQ * f
	return boltzmann(-2*dg1+dg2+2*pHStroma*dgPH, rt)
}

// KeqCyc is the equilibrium constant of cyclic electron flow Fd -> PQ.
func KeqCyc(e0Fd, f, e0PQ, pHStroma, dgPH, rt float64) float64 {
	dg1 := -e0Fd * f
	dg2 := -2 * e0PQ * f
	return boltzmann(-2*dg1+dg2+2*dgPH*pHStroma, rt)
}

// KeqFNR is the equilibrium constant of the ferredoxin-NADP reductase.
func KeqFNR(e0Fd, f, e0NADP, pHStroma, dgPH, rt float64) float64 {
	dg1 := -e0Fd * f
	dg2 := -2 * e0NADP * f
	return boltzmann(-2*dg1+dg2+dgPH*pHStroma, rt)
}

// KeqATP is the pH dependent equilibrium constant of the ATP synthase.
func KeqATP(pH, dg0ATP, dgPH, hpr, pHStroma, piMol, rt float64) float64 {
	dg := dg0ATP - dgPH*hpr*(pHStroma-pH)
	return piMol * boltzmann(dg, rt)
}

// KeqCytb6f is the pH dependent equilibrium constant of the cytochrome b6f
// complex.
func KeqCytb6f(pH, f, e0PQ, e0PC, pHStroma, rt, dgPH float64) float64 {
	dg1 := -2 * f * e0PQ
	dg2 := -f * e0PC
	dg := -(dg1 + 2*dgPH*pH) + 2*dg2 + 2*dgPH*(pHStroma-pH)
	return boltzmann(dg, rt)
}

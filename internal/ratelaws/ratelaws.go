// Package ratelaws holds the pure scalar functions models pass to the
// network builder: generic kinetics, moiety closures and the equilibrium
// constants of the electron transport chain.
package ratelaws

import "math"

// MassAction1 is kf*s1.
func MassAction1(s1, kf float64) float64 { return kf * s1 }

// MassAction2 is kf*s1*s2.
func MassAction2(s1, s2, kf float64) float64 { return kf * s1 * s2 }

// MassAction22Rev is a reversible two-substrate two-product mass action law.
// The reverse constant is kf/keq.
func MassAction22Rev(s1, s2, p1, p2, kf, keq float64) float64 {
	return kf*s1*s2 - kf/keq*p1*p2
}

// Proportional is base*factor.
func Proportional(base, factor float64) float64 { return base * factor }

// MichaelisMenten is vmax*s/(s+km).
func MichaelisMenten(s, vmax, km float64) float64 { return s * vmax / (s + km) }

// RapidEq11 drives s1 <-> p1 towards p1/s1 = q with a large k.
func RapidEq11(s1, p1, k, q float64) float64 { return k * (s1 - p1/q) }

func RapidEq21(s1, s2, p1, k, q float64) float64 { return k * (s1*s2 - p1/q) }

func RapidEq22(s1, s2, p1, p2, k, q float64) float64 { return k * (s1*s2 - p1*p2/q) }

func RapidEq33(s1, s2, s3, p1, p2, p3, k, q float64) float64 {
	return k * (s1*s2*s3 - p1*p2*p3/q)
}

// Moiety1 closes a two-member conserved pool.
func Moiety1(c, total float64) float64 { return total - c }

func Moiety2(c1, c2, total float64) float64 { return total - c1 - c2 }

func Moiety3(c1, c2, c3, total float64) float64 { return total - c1 - c2 - c3 }

// Normalize returns c as a fraction of total.
func Normalize(c, total float64) float64 { return c / total }

func Normalize2(c1, c2, total float64) float64 { return (c1 + c2) / total }

// Hill is x^n/(x^n + k^n).
func Hill(x, k, n float64) float64 {
	xn := math.Pow(x, n)
	return xn / (xn + math.Pow(k, n))
}

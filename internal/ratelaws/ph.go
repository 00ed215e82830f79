package ratelaws

import "math"

// LumenPH converts lumenal protons in mmol/mol Chl to pH.
func LumenPH(h float64) float64 { return -math.Log10(h * 2.5e-4) }

// StromaPH is LumenPH with the stromal volume conversion.
func StromaPH(h float64) float64 { return -math.Log10(h * 3.2e-5) }

// ProtonsAtPH is the inverse of LumenPH.
func ProtonsAtPH(pH float64) float64 { return 4e3 * math.Pow(10, -pH) }

// StromaProtons is the stromal proton concentration in mmol/mol Chl.
func StromaProtons(pHStroma float64) float64 { return 3.2e4 * math.Pow(10, -pHStroma) }

// StromaProtonsMolar is the stromal proton concentration in mmol/l.
func StromaProtonsMolar(pHStroma float64) float64 { return 1000 * math.Pow(10, -pHStroma) }

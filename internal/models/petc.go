package models

import (
	"math"

	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/ratelaws"
)

func petcParameters() map[string]float64 {
	return map[string]float64{
		"convf":   3.2e-2,
		"PSIItot": 2.5,
		"PSItot":  2.5,
		"PQtot":   17.5,
		"PCtot":   4.0,
		"Fdtot":   5.0,
		"NADPtot": 0.8,
		"APtot":   2.55,
		"Psbstot": 1.0,
		"Xtot":    1.0,

		// photosystem II
		"kH_Qslope": 5e9,
		"kH0":       5e8,
		"kF":        6.25e8,
		"k2":        5e9,

		// state transitions
		"kStt7":       0.0035,
		"kPph1":       0.0013,
		"KM_ST":       0.2,
		"n_ST":        2.0,
		"staticAntI":  0.37,
		"staticAntII": 0.1,

		// ATP and NADPH
		"kATPsynth":   20.0,
		"kATPcons":    10.0,
		"Pi_mol":      0.01,
		"DeltaG0_ATP": 30.6,
		"HPR":         14.0 / 3.0,
		"kNADPHcons":  15.0,

		// protons
		"pHstroma": 7.9,
		"kLeak":    10.0,
		"bH":       100.0,

		// electron transport
		"b6f_content": 1,
		"max_b6f":     500,
		"pKreg":       6.2,
		"kPQred":      250.0,
		"kPTOX":       0.01,
		"kPCox":       2500.0,
		"kFdred":      2.5e5,
		"kcatFNR":     500.0,
		"kcyc":        1.0,
		"EFNR":        3.0,
		"KM_FNR_F":    1.56,
		"KM_FNR_N":    0.22,

		// oxygen supply: ox=1 keeps it constant, ox=0 switches to anoxia
		// inside [Ton, Toff], where NDH takes over PQ reduction
		"ox":    1,
		"O2ext": 8.0,
		"kNDH":  0.002,
		"Ton":   0,
		"Toff":  1800,

		// quencher
		"gamma0":         0.1,
		"gamma1":         0.25,
		"gamma2":         0.6,
		"gamma3":         0.15,
		"kDeprotonation": 0.0096,
		"kProtonationL":  0.0096,
		"kphSatLHC":      5.8,
		"kDeepoxV":       0.0024,
		"kEpoxZ":         0.00024,
		"kphSat":         5.8,
		"kHillX":         5.0,
		"kHillL":         3.0,
		"kZSat":          0.12,

		// standard redox potentials at pH 0, in V
		"E0_QA":   -0.140,
		"E0_PQ":   0.354,
		"E0_PC":   0.380,
		"E0_P700": 0.480,
		"E0_FA":   -0.550,
		"E0_Fd":   -0.430,
		"E0_NADP": -0.113,

		"F": 96.485,
		"R": 8.3e-3,
		"T": 298.0,

		"pfd": 100.0,
	}
}

// oxygen returns the effective oxygen concentration and NDH activity.
func oxygen(t, ox, o2ext, kNDH, ton, toff float64) (o2, ndh float64) {
	if ox != 0 {
		return o2ext, kNDH
	}
	anoxia := network.Window{Ton: ton, Toff: toff, On: 1, Off: 0}.At(t)
	return o2ext * (1 - anoxia), kNDH * anoxia
}

func lhcMoiety(lhc float64) float64 { return 1 - lhc }

func ps2CrossSection(lhc, staticAntII, staticAntI float64) float64 {
	return staticAntII + (1-staticAntII-staticAntI)*lhc
}

// quencher is the four-state quenching capacity of the PSII antenna.
func quencher(psbs, vx, psbsp, zx, y0, y1, y2, y3, kZSat float64) float64 {
	zAnt := zx / (zx + kZSat)
	return y0*vx*psbs + y1*vx*psbsp + y2*zAnt*psbsp + y3*zAnt*psbs
}

func fluorescence(q, b0, b2, ps2cs, k2, kF, kHQslope, kH0 float64) float64 {
	kH := kH0 + kHQslope*q
	return ps2cs*kF*b0/(kF+k2+kH) + ps2cs*kF*b2/(kF+kH)
}

// kQuencher is heat dissipation from an excited PSII state.
func kQuencher(b, q, kHQslope, kH0 float64) float64 {
	return b * (kH0 + kHQslope*q)
}

func kB6f(pH, pKreg, content, maxRate float64) float64 {
	deprotonated := 1 - 1/(math.Pow(10, pH-pKreg)+1)
	return deprotonated * content * maxRate
}

func vB6f(pc, pcRed, pq, pqRed, k, keq float64) float64 {
	fPQH2 := pqRed / (pqRed + pq)
	return fPQH2*pc*k - (1-fPQH2)*pcRed*k/keq
}

func vCyc(pq, fdRed, kcyc float64) float64 { return kcyc * fdRed * fdRed * pq }

// vFNR is convenience kinetics for the ferredoxin-NADP reductase. NADPH and
// NADP are converted from mM to mmol/mol Chl.
func vFNR(fd, fdRed, nadph, nadp, kmF, kmN, efnr, kcat, keq, convf float64) float64 {
	fdred := fdRed / kmF
	fdox := fd / kmF
	nadphR := nadph / convf / kmN
	nadpR := nadp / convf / kmN
	return efnr * kcat * (fdred*fdred*nadpR - fdox*fdox*nadphR/keq) /
		((1+fdred+fdred*fdred)*(1+nadpR) + (1+fdox+fdox*fdox)*(1+nadphR) - 1)
}

func vLeak(h, kLeak, pHStroma float64) float64 {
	return kLeak * (h - ratelaws.ProtonsAtPH(pHStroma))
}

func vSt12(lhc, pq, kStt7, pqTot, km, n float64) float64 {
	return kStt7 / (1 + math.Pow(pq/pqTot/km, n)) * lhc
}

func vATPSynthase(atp, adp, keq, k, convf float64) float64 {
	return k * (adp/convf - atp/convf/keq)
}

// protonActivated is a Hill-activated conversion of x by lumenal protons.
func protonActivated(x, h, n, k, pHSat float64) float64 {
	return k * ratelaws.Hill(h, ratelaws.ProtonsAtPH(pHSat), n) * x
}

// PETC is the photosynthetic electron transport chain: PSII and PSI with
// their carriers, cytochrome b6f, FNR, ATP synthase, state transitions, the
// xanthophyll cycle and PsbS protonation. ATP and NADPH drain into first
// order sinks. Oxygen follows a window forcing, so ox=0 runs the anoxia
// protocol of PTOX and NDH.
func PETC() *Model {
	return &Model{
		Name:        "petc",
		Description: "photosynthetic electron transport chain with quenching and anoxia forcing",
		Defaults:    petcParameters,
		Define:      definePETC,
	}
}

func definePETC(b *network.Builder, p map[string]float64) error {
	d := &decl{b: b}
	d.params(p)

	d.compound("PQ", 17.5)
	d.compound("PC", 0.5)
	d.compound("Fd", 4.8)
	d.compound("ATP", 1.0)
	d.compound("NADPH", 0.5)
	d.compound("H", ratelaws.ProtonsAtPH(6.8))
	d.compound("LHC", 0.9)
	d.compound("Psbs", 0.9)
	d.compound("Vx", 0.9)
	d.compound("P700FA", p["PSItot"])
	d.compound("P700+FA-", 0)
	d.compound("P700FA-", 0)
	d.compound("B0", p["PSIItot"])
	d.compound("B1", 0)
	d.compound("B2", 0)

	d.derived("RT", network.F2(ratelaws.Proportional), "R", "T")
	d.derived("dG_pH", network.F2(ratelaws.DGpH), "R", "T")
	d.derived("Keq_PQred", network.F6(ratelaws.KeqPQred), "E0_QA", "F", "E0_PQ", "pHstroma", "dG_pH", "RT")
	d.derived("Keq_FAFd", network.F4(ratelaws.KeqFAFd), "E0_FA", "F", "E0_Fd", "RT")
	d.derived("Keq_PCP700", network.F4(ratelaws.KeqPCP700), "E0_PC", "F", "E0_P700", "RT")
	d.derived("Keq_FNR", network.F6(ratelaws.KeqFNR), "E0_Fd", "F", "E0_NADP", "pHstroma", "dG_pH", "RT")

	d.forcing(network.Forcing{
		Name:    "oxygen",
		Outputs: []string{"O2", "NDH"},
		Params:  []string{"ox", "O2ext", "kNDH", "Ton", "Toff"},
		Fn: network.Multi(6, 2, func(in, out []float64) {
			out[0], out[1] = oxygen(in[0], in[1], in[2], in[3], in[4], in[5])
		}),
	})

	d.module("pH", network.F1(ratelaws.LumenPH), "H")
	d.module("Keq_ATPsynthase", network.FN(7, func(a []float64) float64 {
		return ratelaws.KeqATP(a[0], a[1], a[2], a[3], a[4], a[5], a[6])
	}), "pH", "DeltaG0_ATP", "dG_pH", "HPR", "pHstroma", "Pi_mol", "RT")
	d.module("Keq_B6f", network.FN(7, func(a []float64) float64 {
		return ratelaws.KeqCytb6f(a[0], a[1], a[2], a[3], a[4], a[5], a[6])
	}), "pH", "F", "E0_PQ", "E0_PC", "pHstroma", "RT", "dG_pH")
	d.module("k_b6f", network.F4(kB6f), "pH", "pKreg", "b6f_content", "max_b6f")

	d.module("P700+FA", network.F4(ratelaws.Moiety3), "P700FA-", "P700FA", "P700+FA-", "PSItot")
	d.module("B3", network.F4(ratelaws.Moiety3), "B0", "B1", "B2", "PSIItot")
	d.module("PQred", network.F2(ratelaws.Moiety1), "PQ", "PQtot")
	d.module("PCred", network.F2(ratelaws.Moiety1), "PC", "PCtot")
	d.module("Fdred", network.F2(ratelaws.Moiety1), "Fd", "Fdtot")
	d.module("ADP", network.F2(ratelaws.Moiety1), "ATP", "APtot")
	d.module("NADP", network.F2(ratelaws.Moiety1), "NADPH", "NADPtot")
	d.module("LHCp", network.F1(lhcMoiety), "LHC")
	d.module("Zx", network.F2(ratelaws.Moiety1), "Vx", "Xtot")
	d.module("Psbsp", network.F2(ratelaws.Moiety1), "Psbs", "Psbstot")

	d.module("ps2cs", network.F3(ps2CrossSection), "LHC", "staticAntII", "staticAntI")
	d.module("Q", network.FN(9, func(a []float64) float64 {
		return quencher(a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8])
	}), "Psbs", "Vx", "Psbsp", "Zx", "gamma0", "gamma1", "gamma2", "gamma3", "kZSat")
	d.module("Fluo", network.FN(8, func(a []float64) float64 {
		return fluorescence(a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7])
	}), "Q", "B0", "B2", "ps2cs", "k2", "kF", "kH_Qslope", "kH0")

	d.module("PQ_redoxstate", network.F2(ratelaws.Normalize), "PQred", "PQtot")
	d.module("PC_redoxstate", network.F2(ratelaws.Normalize), "PCred", "PCtot")
	d.module("Fd_redoxstate", network.F2(ratelaws.Normalize), "Fdred", "Fdtot")
	d.module("NADPH_pool", network.F2(ratelaws.Normalize), "NADPH", "NADPtot")
	d.module("ATP_pool", network.F2(ratelaws.Normalize), "ATP", "APtot")

	definePSII(d)
	definePSI(d)
	defineCarriers(d)
	defineQuenching(d)
	return d.err
}

func definePSII(d *decl) {
	d.reaction(network.Reaction{
		Name:          "vB01",
		Fn:            network.F3(ratelaws.MassAction2),
		Inputs:        []string{"B0", "ps2cs", "pfd"},
		Stoichiometry: map[string]float64{"B0": -1, "B1": 1},
	})
	d.reaction(network.Reaction{
		Name:          "vB10Q",
		Fn:            network.F4(kQuencher),
		Inputs:        []string{"B1", "Q", "kH_Qslope", "kH0"},
		Stoichiometry: map[string]float64{"B1": -1, "B0": 1},
	})
	d.reaction(network.Reaction{
		Name:          "vB10F",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"B1", "kF"},
		Stoichiometry: map[string]float64{"B1": -1, "B0": 1},
	})
	d.reaction(network.Reaction{
		Name:                 "vB12",
		Fn:                   network.F2(ratelaws.MassAction1),
		Inputs:               []string{"B1", "k2"},
		Stoichiometry:        map[string]float64{"B1": -1, "B2": 1},
		DerivedStoichiometry: map[string]network.Coefficient{"H": perBuffer(1)},
	})
	d.reaction(network.Reaction{
		Name:          "vB20",
		Fn:            network.F6(ratelaws.MassAction22Rev),
		Inputs:        []string{"B2", "PQ", "PQred", "B0", "kPQred", "Keq_PQred"},
		Stoichiometry: map[string]float64{"B2": -1, "PQ": -0.5, "B0": 1},
		Reversible:    true,
	})
	d.reaction(network.Reaction{
		Name:          "vB23",
		Fn:            network.F3(ratelaws.MassAction2),
		Inputs:        []string{"B2", "ps2cs", "pfd"},
		Stoichiometry: map[string]float64{"B2": -1},
	})
	d.reaction(network.Reaction{
		Name:          "vB32F",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"B3", "kF"},
		Stoichiometry: map[string]float64{"B2": 1},
	})
	d.reaction(network.Reaction{
		Name:          "vB32Q",
		Fn:            network.F4(kQuencher),
		Inputs:        []string{"B3", "Q", "kH_Qslope", "kH0"},
		Stoichiometry: map[string]float64{"B2": 1},
	})
}

func definePSI(d *decl) {
	d.reaction(network.Reaction{
		Name:          "vPS1",
		Fn:            network.F3(vPS1),
		Inputs:        []string{"P700FA", "ps2cs", "pfd"},
		Stoichiometry: map[string]float64{"P700FA": -1, "P700+FA-": 1},
		Modifiers:     []string{"P700FA", "ps2cs"},
	})
	d.reaction(network.Reaction{
		Name:          "v2_to_P700FA-",
		Fn:            network.F6(ratelaws.MassAction22Rev),
		Inputs:        []string{"P700+FA-", "PCred", "PC", "P700FA-", "kPCox", "Keq_PCP700"},
		Stoichiometry: map[string]float64{"P700+FA-": -1, "P700FA-": 1, "PC": 1},
		Reversible:    true,
	})
	d.reaction(network.Reaction{
		Name:          "v3_to_P700FA",
		Fn:            network.F6(ratelaws.MassAction22Rev),
		Inputs:        []string{"P700FA-", "Fd", "P700FA", "Fdred", "kFdred", "Keq_FAFd"},
		Stoichiometry: map[string]float64{"P700FA-": -1, "Fd": -1, "P700FA": 1},
		Reversible:    true,
	})
	d.reaction(network.Reaction{
		Name:          "v4_to_P700+FA",
		Fn:            network.F6(ratelaws.MassAction22Rev),
		Inputs:        []string{"P700+FA-", "Fd", "P700+FA", "Fdred", "kFdred", "Keq_FAFd"},
		Stoichiometry: map[string]float64{"P700+FA-": -1, "Fd": -1},
		Reversible:    true,
	})
	d.reaction(network.Reaction{
		Name:          "v5_to_P700FA",
		Fn:            network.F6(ratelaws.MassAction22Rev),
		Inputs:        []string{"P700+FA", "PCred", "P700FA", "PC", "kPCox", "Keq_PCP700"},
		Stoichiometry: map[string]float64{"P700FA": 1, "PC": 1},
		Reversible:    true,
	})
}

func defineCarriers(d *decl) {
	d.reaction(network.Reaction{
		Name:          "vPTOX",
		Fn:            network.F3(func(pqRed, o2, k float64) float64 { return pqRed * k * o2 }),
		Inputs:        []string{"PQred", "O2", "kPTOX"},
		Stoichiometry: map[string]float64{"PQ": 1},
		Modifiers:     []string{"PQred", "O2"},
	})
	d.reaction(network.Reaction{
		Name:          "vNDH",
		Fn:            network.F2(func(pq, ndh float64) float64 { return ndh * pq }),
		Inputs:        []string{"PQ", "NDH"},
		Stoichiometry: map[string]float64{"PQ": -1},
		Modifiers:     []string{"NDH"},
	})
	d.reaction(network.Reaction{
		Name:                 "vB6f",
		Fn:                   network.F6(vB6f),
		Inputs:               []string{"PC", "PCred", "PQ", "PQred", "k_b6f", "Keq_B6f"},
		Stoichiometry:        map[string]float64{"PC": -2, "PQ": 1},
		DerivedStoichiometry: map[string]network.Coefficient{"H": perBuffer(4)},
		Modifiers:            []string{"PQ", "PQred", "PCred", "k_b6f", "Keq_B6f"},
		Reversible:           true,
	})
	d.reaction(network.Reaction{
		Name:          "vCyc",
		Fn:            network.F3(vCyc),
		Inputs:        []string{"PQ", "Fdred", "kcyc"},
		Stoichiometry: map[string]float64{"PQ": -1, "Fd": 2},
		Modifiers:     []string{"Fdred"},
	})
	d.reaction(network.Reaction{
		Name: "vFNR",
		Fn:   network.FN(10, func(a []float64) float64 {
			return vFNR(a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9])
		}),
		Inputs:        []string{"Fd", "Fdred", "NADPH", "NADP", "KM_FNR_F", "KM_FNR_N", "EFNR", "kcatFNR", "Keq_FNR", "convf"},
		Stoichiometry: map[string]float64{"Fd": 2},
		DerivedStoichiometry: map[string]network.Coefficient{
			"NADPH": parameterCoefficient("convf"),
		},
		Modifiers: []string{"Fd", "Fdred", "NADPH", "NADP"},
	})
	d.reaction(network.Reaction{
		Name:                 "vLeak",
		Fn:                   network.F3(vLeak),
		Inputs:               []string{"H", "kLeak", "pHstroma"},
		DerivedStoichiometry: map[string]network.Coefficient{"H": perBuffer(-1)},
	})
	d.reaction(network.Reaction{
		Name:   "vATPsynthase",
		Fn:     network.F5(vATPSynthase),
		Inputs: []string{"ATP", "ADP", "Keq_ATPsynthase", "kATPsynth", "convf"},
		DerivedStoichiometry: map[string]network.Coefficient{
			"H":   {Fn: network.F2(func(hpr, bH float64) float64 { return -hpr / bH }), Inputs: []string{"HPR", "bH"}},
			"ATP": parameterCoefficient("convf"),
		},
		Modifiers:  []string{"ATP", "ADP", "Keq_ATPsynthase"},
		Reversible: true,
	})
	d.reaction(network.Reaction{
		Name:          "vATPconsumption",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"ATP", "kATPcons"},
		Stoichiometry: map[string]float64{"ATP": -1},
	})
	d.reaction(network.Reaction{
		Name:          "vNADPHconsumption",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"NADPH", "kNADPHcons"},
		Stoichiometry: map[string]float64{"NADPH": -1},
	})
	d.reaction(network.Reaction{
		Name:          "vSt12",
		Fn:            network.F6(vSt12),
		Inputs:        []string{"LHC", "PQ", "kStt7", "PQtot", "KM_ST", "n_ST"},
		Stoichiometry: map[string]float64{"LHC": -1},
		Modifiers:     []string{"PQ"},
	})
	d.reaction(network.Reaction{
		Name:          "vSt21",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"LHCp", "kPph1"},
		Stoichiometry: map[string]float64{"LHC": 1},
		Modifiers:     []string{"LHCp"},
	})
}

func defineQuenching(d *decl) {
	d.reaction(network.Reaction{
		Name:          "vDeepox",
		Fn:            network.F5(protonActivated),
		Inputs:        []string{"Vx", "H", "kHillX", "kDeepoxV", "kphSat"},
		Stoichiometry: map[string]float64{"Vx": -1},
		Modifiers:     []string{"H"},
	})
	d.reaction(network.Reaction{
		Name:          "vEpox",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"Zx", "kEpoxZ"},
		Stoichiometry: map[string]float64{"Vx": 1},
		Modifiers:     []string{"Zx"},
	})
	d.reaction(network.Reaction{
		Name:          "vLhcprotonation",
		Fn:            network.F5(protonActivated),
		Inputs:        []string{"Psbs", "H", "kHillL", "kProtonationL", "kphSatLHC"},
		Stoichiometry: map[string]float64{"Psbs": -1},
		Modifiers:     []string{"H"},
	})
	d.reaction(network.Reaction{
		Name:          "vLhcdeprotonation",
		Fn:            network.F2(ratelaws.MassAction1),
		Inputs:        []string{"Psbsp", "kDeprotonation"},
		Stoichiometry: map[string]float64{"Psbs": 1},
		Modifiers:     []string{"Psbsp"},
	})
}

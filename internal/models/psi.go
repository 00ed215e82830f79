package models

import (
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/ratelaws"
)

func psiParameters() map[string]float64 {
	return map[string]float64{
		"PSItot": 2.5,
		"PCtot":  4.0,
		"Fdtot":  5.0,
		"kPCox":  2500.0,
		"kFdred": 2.5e5,

		"E0_PC":   0.380,
		"E0_P700": 0.480,
		"E0_FA":   -0.550,
		"E0_Fd":   -0.430,

		"F": 96.485,
		"R": 8.3e-3,
		"T": 298.0,

		"pfd": 100.0,
	}
}

// vPS1 is the excitation of open PSI. ps2cs is the PSII cross section, so
// 1-ps2cs is the share of light reaching PSI.
func vPS1(p700FA, ps2cs, pfd float64) float64 {
	return (1 - ps2cs) * pfd * p700FA
}

// PSI is the three-state photosystem I submodel with plastocyanin and
// ferredoxin as electron donor and acceptor.
func PSI() *Model {
	return &Model{
		Name:        "psi",
		Description: "photosystem I with plastocyanin and ferredoxin pools",
		Defaults:    psiParameters,
		Define: func(b *network.Builder, p map[string]float64) error {
			d := &decl{b: b}
			d.params(p)

			d.compound("P700FA", p["PSItot"])
			d.compound("P700pFAm", 0)
			d.compound("PC", 0)
			d.compound("Fd", p["Fdtot"])
			d.compound("ps2cs", 0.5)

			d.derived("RT", network.F2(ratelaws.Proportional), "R", "T")
			d.derived("Keq_FAFd", network.F4(ratelaws.KeqFAFd), "E0_FA", "F", "E0_Fd", "RT")
			d.derived("Keq_PCP700", network.F4(ratelaws.KeqPCP700), "E0_PC", "F", "E0_P700", "RT")

			d.module("PCred", network.F2(ratelaws.Moiety1), "PC", "PCtot")
			d.module("Fdred", network.F2(ratelaws.Moiety1), "Fd", "Fdtot")
			d.module("P700pFA", network.F3(ratelaws.Moiety2), "P700FA", "P700pFAm", "PSItot")

			d.reaction(network.Reaction{
				Name:          "vPS1",
				Fn:            network.F3(vPS1),
				Inputs:        []string{"P700FA", "ps2cs", "pfd"},
				Stoichiometry: map[string]float64{"P700FA": -1, "P700pFAm": 1},
				Modifiers:     []string{"P700FA", "ps2cs"},
			})
			d.reaction(network.Reaction{
				Name:          "v4_to_P700pFA",
				Fn:            network.F6(ratelaws.MassAction22Rev),
				Inputs:        []string{"P700pFAm", "Fd", "P700pFA", "Fdred", "kFdred", "Keq_FAFd"},
				Stoichiometry: map[string]float64{"P700pFAm": -1, "Fd": -1},
				Reversible:    true,
			})
			d.reaction(network.Reaction{
				Name:          "v5_to_P700FA",
				Fn:            network.F6(ratelaws.MassAction22Rev),
				Inputs:        []string{"P700pFA", "PCred", "P700FA", "PC", "kPCox", "Keq_PCP700"},
				Stoichiometry: map[string]float64{"P700FA": 1, "PC": 1},
				Reversible:    true,
			})

			d.module("Fd_redoxstate", network.F2(ratelaws.Normalize), "Fdred", "Fdtot")
			d.module("PC_redoxstate", network.F2(ratelaws.Normalize), "PCred", "PCtot")
			d.module("rel_P700pFA", network.F2(ratelaws.Normalize), "P700pFA", "PSItot")
			d.module("rel_P700FA", network.F2(ratelaws.Normalize), "P700FA", "PSItot")
			d.module("rel_P700pFAm", network.F2(ratelaws.Normalize), "P700pFAm", "PSItot")
			return d.err
		},
	}
}

package models

import (
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/ratelaws"
)

// Decay is the single irreversible conversion X -> Y with rate k*X.
func Decay() *Model {
	return &Model{
		Name:        "decay",
		Description: "irreversible conversion X -> Y with mass action rate k*X",
		Defaults: func() map[string]float64 {
			return map[string]float64{"k": 2.0}
		},
		Define: func(b *network.Builder, p map[string]float64) error {
			d := &decl{b: b}
			d.params(p)
			d.compound("X", 3.0)
			d.compound("Y", 0.0)
			d.reaction(network.Reaction{
				Name:          "conversion",
				Fn:            network.F2(ratelaws.MassAction1),
				Inputs:        []string{"X", "k"},
				Stoichiometry: map[string]float64{"X": -1, "Y": 1},
			})
			return d.err
		},
		Conserved: map[string][]string{"total": {"X", "Y"}},
	}
}

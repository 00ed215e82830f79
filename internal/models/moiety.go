package models

import (
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/ratelaws"
)

// Moiety is a three-member cycle x1 -> x2 -> x3 -> x1 where x3 is not
// integrated but closed by the conserved total.
func Moiety() *Model {
	return &Model{
		Name:        "moiety",
		Description: "conserved cycle x1 -> x2 -> x3 -> x1 with x3 = total - x1 - x2",
		Defaults: func() map[string]float64 {
			return map[string]float64{
				"total": 10.0,
				"k1":    1.0,
				"k2":    0.5,
				"k3":    0.25,
			}
		},
		Define: func(b *network.Builder, p map[string]float64) error {
			d := &decl{b: b}
			d.params(p)
			d.compound("x1", 10.0)
			d.compound("x2", 0.0)
			d.module("x3", network.F3(ratelaws.Moiety2), "x1", "x2", "total")
			d.module("x1_frac", network.F2(ratelaws.Normalize), "x1", "total")
			d.module("x2_frac", network.F2(ratelaws.Normalize), "x2", "total")
			d.module("x3_frac", network.F2(ratelaws.Normalize), "x3", "total")

			d.reaction(network.Reaction{
				Name:          "v1",
				Fn:            network.F2(ratelaws.MassAction1),
				Inputs:        []string{"x1", "k1"},
				Stoichiometry: map[string]float64{"x1": -1, "x2": 1},
			})
			d.reaction(network.Reaction{
				Name:          "v2",
				Fn:            network.F2(ratelaws.MassAction1),
				Inputs:        []string{"x2", "k2"},
				Stoichiometry: map[string]float64{"x2": -1},
			})
			d.reaction(network.Reaction{
				Name:          "v3",
				Fn:            network.F2(ratelaws.MassAction1),
				Inputs:        []string{"x3", "k3"},
				Stoichiometry: map[string]float64{"x1": 1},
				Modifiers:     []string{"x3"},
			})
			return d.err
		},
	}
}

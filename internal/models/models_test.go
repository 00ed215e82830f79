package models

import (
	"context"
	"errors"
	"math"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
)

func flux(net *network.FrozenNetwork, rates []float64, name string) float64 {
	i := slices.Index(net.Reactions(), name)
	Expect(i).To(BeNumerically(">=", 0), "reaction %s", name)
	return rates[i]
}

func value(net *network.FrozenNetwork, y []float64, compound string) float64 {
	i, ok := net.CompoundIndex(compound)
	Expect(ok).To(BeTrue(), "compound %s", compound)
	return y[i]
}

var _ = Describe("Registry", func() {
	var r *Registry

	BeforeEach(func() {
		r = NewRegistry()
	})

	It("lists the built-in models in order", func() {
		Expect(r.List()).To(Equal([]string{"decay", "moiety", "petc", "psi"}))
	})

	It("builds every registered model", func() {
		for _, name := range r.List() {
			m, err := r.Get(name)
			Expect(err).NotTo(HaveOccurred())

			net, err := m.Build(Overrides{})
			Expect(err).NotTo(HaveOccurred(), name)

			dy, err := net.RHS()(0, net.InitialState())
			Expect(err).NotTo(HaveOccurred(), name)
			for i, v := range dy {
				Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse(), "%s d%s/dt", name, net.Compounds()[i])
			}
		}
	})

	It("rejects unknown and duplicate models", func() {
		_, err := r.Get("lorenz")
		Expect(errors.Is(err, ErrUnknownModel)).To(BeTrue())
		Expect(r.Register(Decay())).To(MatchError(ContainSubstring("already registered")))
		Expect(r.Register(&Model{Name: "empty"})).To(HaveOccurred())
	})
})

var _ = Describe("Model overrides", func() {
	It("returns a fresh default table on every call", func() {
		m := PSI()
		p := m.Defaults()
		p["pfd"] = -1
		Expect(m.Defaults()["pfd"]).To(Equal(100.0))
	})

	It("applies parameter and initial overrides", func() {
		net, err := Decay().Build(Overrides{
			Parameters: map[string]float64{"k": 0.5},
			Initial:    map[string]float64{"X": 8},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(net.InitialState()).To(Equal([]float64{8, 0}))

		dy, err := net.RHS()(0, []float64{8, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(dy).To(Equal([]float64{-4, 4}))
	})

	It("rejects unknown names", func() {
		_, err := Decay().Build(Overrides{Parameters: map[string]float64{"kk": 1}})
		Expect(errors.Is(err, ErrUnknownParameter)).To(BeTrue())

		_, err = Decay().Build(Overrides{Initial: map[string]float64{"Z": 1}})
		Expect(errors.Is(err, network.ErrUnresolvedReference)).To(BeTrue())
	})

	It("can extend a model before it is finalized", func() {
		b, err := Decay().Builder(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		Expect(b.AddParameter("k_back", 1)).To(Succeed())
		Expect(b.AddReaction(network.Reaction{
			Name:          "back",
			Fn:            network.F2(func(y, k float64) float64 { return k * y }),
			Inputs:        []string{"Y", "k_back"},
			Stoichiometry: map[string]float64{"X": 1, "Y": -1},
		})).To(Succeed())

		net, err := b.Finalize()
		Expect(err).NotTo(HaveOccurred())
		dy, err := net.RHS()(0, []float64{3, 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(dy).To(Equal([]float64{-3, 3}))
	})
})

var _ = Describe("decay", func() {
	It("converts X into Y at rate k*X", func() {
		net, err := Decay().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		Expect(net.Compounds()).To(Equal([]string{"X", "Y"}))

		dy, err := net.RHS()(0, []float64{3, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(dy).To(Equal([]float64{-6, 6}))
	})

	It("integrates to the analytic solution and keeps the declared total", func() {
		net, err := Decay().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())

		cfg := sim.DefaultConfig()
		cfg.Duration = 1
		cfg.Adaptive = true
		cfg.Tolerance = 1e-10
		res, err := sim.New(net, integrators.NewRK45()).Run(context.Background(), net.InitialState(), cfg)
		Expect(err).NotTo(HaveOccurred())

		final := res.Final()
		Expect(final[0]).To(BeNumerically("~", 3*math.Exp(-2), 1e-7))
		members := Decay().Conserved["total"]
		Expect(members).To(ConsistOf("X", "Y"))
		Expect(final[0] + final[1]).To(BeNumerically("~", 3, 1e-12))
	})
})

var _ = Describe("moiety", func() {
	It("keeps x1 + x2 + x3 constant", func() {
		net, err := Moiety().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())

		for _, y := range [][]float64{{10, 0}, {3, 4}, {0.1, 9.5}, {2.5, 2.5}} {
			dy, err := net.RHS()(0, y)
			Expect(err).NotTo(HaveOccurred())
			rates, err := net.Fluxes(0, y)
			Expect(err).NotTo(HaveOccurred())

			dx3 := flux(net, rates, "v2") - flux(net, rates, "v3")
			Expect(dy[0] + dy[1] + dx3).To(BeNumerically("~", 0, 1e-12))
		}
	})

	It("reports pool fractions over a trajectory", func() {
		net, err := Moiety().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())

		d, err := net.EvaluateTrajectory([]float64{0, 1}, [][]float64{{10, 0}, {4, 4}})
		Expect(err).NotTo(HaveOccurred())
		x3, ok := d.Series("x3_frac")
		Expect(ok).To(BeTrue())
		Expect(x3).To(HaveLen(2))
		Expect(x3[0]).To(BeNumerically("~", 0, 1e-12))
		Expect(x3[1]).To(BeNumerically("~", 0.2, 1e-12))
	})

	It("records the pool as the declared modifier of v3", func() {
		net, err := Moiety().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		info, ok := net.Reaction("v3")
		Expect(ok).To(BeTrue())
		Expect(info.Modifiers).To(Equal([]string{"x3"}))
		Expect(info.Products).To(Equal([]string{"x1"}))
	})
})

var _ = Describe("psi", func() {
	var net *network.FrozenNetwork

	BeforeEach(func() {
		var err error
		net, err = PSI().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("resolves RT before any evaluation", func() {
		rt, ok := net.Parameter("RT")
		Expect(ok).To(BeTrue())
		Expect(rt).To(BeNumerically("~", 2.4734, 1e-12))
		Expect(net.IsDerived("Keq_FAFd")).To(BeTrue())
	})

	It("conserves the P700 pool", func() {
		y := []float64{1.2, 0.7, 1.5, 3.1, 0.5}
		dy, err := net.RHS()(0, y)
		Expect(err).NotTo(HaveOccurred())
		rates, err := net.Fluxes(0, y)
		Expect(err).NotTo(HaveOccurred())

		// P700pFA gains from v4 and loses to v5.
		dP700pFA := flux(net, rates, "v4_to_P700pFA") - flux(net, rates, "v5_to_P700FA")
		total := value(net, dy, "P700FA") + value(net, dy, "P700pFAm") + dP700pFA
		Expect(total).To(BeNumerically("~", 0, 1e-6))
		Expect(value(net, dy, "ps2cs")).To(BeZero())
	})

	It("stops excitation in the dark", func() {
		dark, err := PSI().Build(Overrides{Parameters: map[string]float64{"pfd": 0}})
		Expect(err).NotTo(HaveOccurred())
		rates, err := dark.Fluxes(0, dark.InitialState())
		Expect(err).NotTo(HaveOccurred())
		Expect(flux(dark, rates, "vPS1")).To(BeZero())
	})
})

var _ = Describe("petc", func() {
	anoxic := Overrides{Parameters: map[string]float64{"ox": 0, "Ton": 10, "Toff": 20}}

	It("switches oxygen and NDH inside the anoxia window", func() {
		net, err := PETC().Build(anoxic)
		Expect(err).NotTo(HaveOccurred())
		y := net.InitialState()

		for _, tc := range []struct {
			t       float64
			o2, ndh float64
		}{
			{25, 8, 0}, {15, 0, 0.002}, {5, 8, 0}, {15, 0, 0.002},
		} {
			snap, err := net.Snapshot(tc.t, y)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap["O2"]).To(Equal(tc.o2), "t=%g", tc.t)
			Expect(snap["NDH"]).To(Equal(tc.ndh), "t=%g", tc.t)
		}
	})

	It("keeps oxygen constant with ox set", func() {
		net, err := PETC().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		snap, err := net.Snapshot(15, net.InitialState())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap["O2"]).To(Equal(8.0))
		Expect(snap["NDH"]).To(Equal(0.002))
	})

	It("conserves the PSII pool", func() {
		net, err := PETC().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		y := net.InitialState()
		b1, _ := net.CompoundIndex("B1")
		b2, _ := net.CompoundIndex("B2")
		y[b1], y[b2] = 0.4, 0.6

		dy, err := net.RHS()(0, y)
		Expect(err).NotTo(HaveOccurred())
		rates, err := net.Fluxes(0, y)
		Expect(err).NotTo(HaveOccurred())

		dB3 := flux(net, rates, "vB23") - flux(net, rates, "vB32F") - flux(net, rates, "vB32Q")
		sum := value(net, dy, "B0") + value(net, dy, "B1") + value(net, dy, "B2") + dB3
		scale := math.Abs(flux(net, rates, "vB10F")) + 1
		Expect(sum / scale).To(BeNumerically("~", 0, 1e-9))
	})

	It("evaluates proton coefficients from the final buffer value", func() {
		net, err := PETC().Build(Overrides{Parameters: map[string]float64{"bH": 50}})
		Expect(err).NotTo(HaveOccurred())
		info, ok := net.Reaction("vB6f")
		Expect(ok).To(BeTrue())
		Expect(info.Stoichiometry["H"]).To(Equal(4.0 / 50))
		Expect(info.Reversible).To(BeTrue())
	})

	It("orders modules after the pools they read", func() {
		net, err := PETC().Build(Overrides{})
		Expect(err).NotTo(HaveOccurred())
		order := net.ModuleOrder()
		Expect(slices.Index(order, "pH")).To(BeNumerically("<", slices.Index(order, "Keq_ATPsynthase")))
		Expect(slices.Index(order, "Zx")).To(BeNumerically("<", slices.Index(order, "Q")))
		Expect(slices.Index(order, "Q")).To(BeNumerically("<", slices.Index(order, "Fluo")))
		Expect(slices.Index(order, "PQred")).To(BeNumerically("<", slices.Index(order, "PQ_redoxstate")))
	})
})

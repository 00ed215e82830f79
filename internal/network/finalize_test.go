package network

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(x float64) float64 { return x }

func TestFinalizeCycles(t *testing.T) {
	t.Run("two modules consuming each other", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddCompound("X", 1))
		require.NoError(t, b.AddModule("a", F2(func(x, b float64) float64 { return x + b }), "X", "b"))
		require.NoError(t, b.AddModule("b", F1(identity), "a"))

		net, err := b.Finalize()
		require.Nil(t, net)
		require.ErrorIs(t, err, ErrCycle)

		var cerr *CycleError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "modules", cerr.Graph)
		require.Len(t, cerr.Path, 3)
		assert.Equal(t, cerr.Path[0], cerr.Path[2])
		assert.ElementsMatch(t, []string{"a", "b"}, cerr.Path[:2])
	})

	t.Run("module reading its own output", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddModule("a", F1(identity), "a"))
		_, err := b.Finalize()
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("derived parameters", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDerivedParameter("p", F1(identity), "q"))
		require.NoError(t, b.AddDerivedParameter("q", F1(identity), "p"))

		_, err := b.Finalize()
		var cerr *CycleError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "derived parameters", cerr.Graph)
		assert.ErrorContains(t, err, "q -> p -> q")
	})
}

func TestFinalizeReferences(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder) error
		want  error
	}{
		{
			name: "module input not declared",
			build: func(b *Builder) error {
				return b.AddModule("m", F1(identity), "ghost")
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "reaction input not declared",
			build: func(b *Builder) error {
				return b.AddReaction(Reaction{Name: "v", Fn: F1(identity), Inputs: []string{"ghost"}})
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "stoichiometry key is not a compound",
			build: func(b *Builder) error {
				return b.AddReaction(Reaction{Name: "v", Fn: F1(identity), Inputs: []string{"X"}, Stoichiometry: map[string]float64{"k": 1}})
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "derived parameter reads a compound",
			build: func(b *Builder) error {
				return b.AddDerivedParameter("d", F1(identity), "X")
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "derived parameter reads time",
			build: func(b *Builder) error {
				return b.AddDerivedParameter("d", F1(identity), Time)
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "forcing reads a compound",
			build: func(b *Builder) error {
				return b.AddForcing(Forcing{Outputs: []string{"f"}, Fn: F2(func(t, x float64) float64 { return x }), Params: []string{"X"}})
			},
			want: ErrUnresolvedReference,
		},
		{
			name: "modifier not among inputs",
			build: func(b *Builder) error {
				return b.AddReaction(Reaction{
					Name: "v", Fn: F2(massAction), Inputs: []string{"X", "k"},
					Stoichiometry: map[string]float64{"X": -1}, Modifiers: []string{"Y"},
				})
			},
			want: ErrArityMismatch,
		},
		{
			name: "state input that is neither substrate nor modifier",
			build: func(b *Builder) error {
				return b.AddReaction(Reaction{
					Name: "v", Fn: F3(func(x, y, k float64) float64 { return k * x * y }), Inputs: []string{"X", "Y", "k"},
					Stoichiometry: map[string]float64{"X": -1}, Modifiers: []string{"k"},
				})
			},
			want: ErrArityMismatch,
		},
		{
			name: "literal and derived coefficient for one compound",
			build: func(b *Builder) error {
				return b.AddReaction(Reaction{
					Name: "v", Fn: F1(identity), Inputs: []string{"X"},
					Stoichiometry:        map[string]float64{"X": -1},
					DerivedStoichiometry: map[string]Coefficient{"X": {Fn: F1(neg), Inputs: []string{"k"}}},
				})
			},
			want: ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			require.NoError(t, b.AddCompound("X", 1))
			require.NoError(t, b.AddCompound("Y", 1))
			require.NoError(t, b.AddParameter("k", 1))
			require.NoError(t, tt.build(b))

			net, err := b.Finalize()
			assert.Nil(t, net)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFinalizeFailureLeavesBuilderOpen(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddModule("m", F1(identity), "late"))

	_, err := b.Finalize()
	require.ErrorIs(t, err, ErrUnresolvedReference)

	require.NoError(t, b.AddParameter("late", 7))
	net, err := b.Finalize()
	require.NoError(t, err)

	out, err := net.EvaluateModules(0, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, out)
}

func TestFinalizeFunctionPanics(t *testing.T) {
	t.Run("derived parameter", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddParameter("k", 1))
		require.NoError(t, b.AddDerivedParameter("bad", F1(func(float64) float64 { panic("bad derived") }), "k"))

		var net *FrozenNetwork
		var err error
		require.NotPanics(t, func() { net, err = b.Finalize() })
		assert.Nil(t, net)
		require.ErrorIs(t, err, ErrFunctionPanic)
		var berr *BuildError
		require.True(t, errors.As(err, &berr))
		assert.Equal(t, "derived parameter", berr.Kind)
		assert.Equal(t, "bad", berr.Name)
		assert.ErrorContains(t, err, "bad derived")

		_, err = b.GetParameter("bad")
		assert.ErrorIs(t, err, ErrFunctionPanic)
	})

	t.Run("derived coefficient", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddCompound("X", 1))
		require.NoError(t, b.AddParameter("n", 2))
		require.NoError(t, b.AddReaction(Reaction{
			Name:   "v",
			Fn:     F1(identity),
			Inputs: []string{"X"},
			DerivedStoichiometry: map[string]Coefficient{
				"X": {Fn: F1(func(float64) float64 { panic("bad coefficient") }), Inputs: []string{"n"}},
			},
		}))

		var err error
		require.NotPanics(t, func() { _, err = b.Finalize() })
		require.ErrorIs(t, err, ErrFunctionPanic)
		var berr *BuildError
		require.True(t, errors.As(err, &berr))
		assert.Equal(t, "reaction", berr.Kind)
		assert.Equal(t, "v", berr.Name)
		assert.ErrorContains(t, err, `coefficient of X: panic: bad coefficient`)
	})
}

func TestFinalizeFreezes(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCompound("X", 1))
	require.NoError(t, b.AddParameter("k", 1))
	require.NoError(t, b.AddReaction(Reaction{Name: "v", Fn: F2(massAction), Inputs: []string{"X", "k"}, Stoichiometry: map[string]float64{"X": -1}}))

	first, err := b.Finalize()
	require.NoError(t, err)
	second, err := b.Finalize()
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.ErrorIs(t, b.AddCompound("Z", 0), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddCompounds("Z"), ErrFrozenNetwork)
	assert.ErrorIs(t, b.SetInitial("X", 0), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddParameter("z", 0), ErrFrozenNetwork)
	assert.ErrorIs(t, b.UpdateParameter("k", 2), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddDerivedParameter("d", F1(identity), "k"), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddModule("m", F1(identity), "X"), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddForcing(WindowForcing("g", "k", "k", "k", "k")), ErrFrozenNetwork)
	assert.ErrorIs(t, b.AddReaction(Reaction{Name: "w", Fn: F1(identity), Inputs: []string{"X"}}), ErrFrozenNetwork)
	assert.ErrorIs(t, b.UpdateReaction(Reaction{Name: "v", Fn: F1(identity), Inputs: []string{"X"}}), ErrFrozenNetwork)

	v, ok := first.Parameter("k")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestModuleOrder(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCompound("X", 2))
	// Declared consumers first so that declaration order is not a valid order.
	require.NoError(t, b.AddModule("d", F2(func(b, c float64) float64 { return b * c }), "b", "c"))
	require.NoError(t, b.AddModule("c", F1(func(a float64) float64 { return a + 1 }), "a"))
	require.NoError(t, b.AddModule("b", F1(func(a float64) float64 { return a * 3 }), "a"))
	require.NoError(t, b.AddModule("a", F1(identity), "X"))
	require.NoError(t, b.AddModule("free", F1(identity), Time))

	net, err := b.Finalize()
	require.NoError(t, err)

	order := net.ModuleOrder()
	assert.Equal(t, []string{"a", "c", "b", "d", "free"}, order)

	before := func(x, y string) bool { return slices.Index(order, x) < slices.Index(order, y) }
	assert.True(t, before("a", "b"))
	assert.True(t, before("a", "c"))
	assert.True(t, before("b", "d"))
	assert.True(t, before("c", "d"))

	out, err := net.EvaluateModules(4, []float64{2})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a", "free"}, net.ModuleOutputs())
	assert.Equal(t, []float64{18, 3, 6, 2, 4}, out)
}

func TestReactionInfo(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCompounds("S", "P", "E"))
	require.NoError(t, b.AddParameter("k", 1))
	mm := F3(func(s, e, k float64) float64 { return k * e * s })
	require.NoError(t, b.AddReaction(Reaction{
		Name: "inferred", Fn: mm, Inputs: []string{"S", "E", "k"},
		Stoichiometry: map[string]float64{"S": -1, "P": 1},
	}))
	require.NoError(t, b.AddReaction(Reaction{
		Name: "declared", Fn: mm, Inputs: []string{"S", "E", "k"},
		Stoichiometry: map[string]float64{"S": -1, "P": 1},
		Modifiers:     []string{"E"},
		Reversible:    true,
	}))

	net, err := b.Finalize()
	require.NoError(t, err)

	for _, name := range []string{"inferred", "declared"} {
		info, ok := net.Reaction(name)
		require.True(t, ok, name)
		assert.Equal(t, []string{"S"}, info.Substrates)
		assert.Equal(t, []string{"P"}, info.Products)
		assert.Equal(t, []string{"E"}, info.Modifiers)
		assert.Equal(t, map[string]float64{"S": -1, "P": 1}, info.Stoichiometry)
	}

	info, _ := net.Reaction("declared")
	assert.True(t, info.Reversible)
	_, ok := net.Reaction("missing")
	assert.False(t, ok)

	assert.Equal(t, [][]float64{{-1, -1}, {1, 1}, {0, 0}}, net.StoichiometricMatrix())
}

func TestStoichiometrySemantics(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCompounds("X", "Y"))
	require.NoError(t, b.AddParameter("n", 2))

	// Literal coefficient computed while declaring: a snapshot.
	require.NoError(t, b.AddReaction(Reaction{
		Name: "snapshot", Fn: F0(func() float64 { return 1 }),
		Stoichiometry: map[string]float64{"X": -b.MustGetParameter("n")},
	}))
	// Derived coefficient: evaluated at Finalize.
	require.NoError(t, b.AddReaction(Reaction{
		Name: "derived", Fn: F0(func() float64 { return 1 }),
		DerivedStoichiometry: map[string]Coefficient{"Y": {Fn: F1(neg), Inputs: []string{"n"}}},
	}))
	require.NoError(t, b.UpdateParameter("n", 3))

	net, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{-2, 0}, {0, -3}}, net.StoichiometricMatrix())

	dy, err := net.RHS()(0, []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -3}, dy)
}

func TestAccessorsReturnCopies(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddCompound("X", 1))
	require.NoError(t, b.AddParameter("k", 2))
	require.NoError(t, b.AddDerivedParameter("k2", F1(func(k float64) float64 { return k * k }), "k"))
	net, err := b.Finalize()
	require.NoError(t, err)

	x0 := net.InitialState()
	x0[0] = 99
	assert.Equal(t, []float64{1}, net.InitialState())

	names := net.Compounds()
	names[0] = "Z"
	assert.Equal(t, []string{"X"}, net.Compounds())

	params := net.Parameters()
	params["k"] = 10
	assert.Equal(t, map[string]float64{"k": 2, "k2": 4}, net.Parameters())
	assert.Equal(t, []string{"k", "k2"}, net.ParameterNames())
	assert.True(t, net.IsDerived("k2"))
	assert.False(t, net.IsDerived("k"))

	i, ok := net.CompoundIndex("X")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = net.CompoundIndex("k")
	assert.False(t, ok)
}

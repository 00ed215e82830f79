package network

// Func is a pure function of a fixed number of scalar arguments producing a
// fixed number of scalar outputs. The arity is part of the value, so a
// declared input list can be checked against it at build time.
type Func struct {
	arity   int
	outputs int
	eval    func(args, out []float64)
}

// Arity returns the number of arguments.
func (f Func) Arity() int { return f.arity }

// Outputs returns the number of values produced.
func (f Func) Outputs() int { return f.outputs }

func (f Func) valid() bool { return f.eval != nil }

// Call evaluates f outside the hot path. It panics if len(args) != Arity().
func (f Func) Call(args ...float64) []float64 {
	if len(args) != f.arity {
		panic("network: Func called with wrong number of arguments")
	}
	out := make([]float64, f.outputs)
	f.eval(args, out)
	return out
}

func scalar(arity int, fn func(args []float64) float64) Func {
	return Func{arity: arity, outputs: 1, eval: func(a, o []float64) { o[0] = fn(a) }}
}

// F0 wraps a constant function.
func F0(fn func() float64) Func {
	return scalar(0, func([]float64) float64 { return fn() })
}

func F1(fn func(a float64) float64) Func {
	return scalar(1, func(x []float64) float64 { return fn(x[0]) })
}

func F2(fn func(a, b float64) float64) Func {
	return scalar(2, func(x []float64) float64 { return fn(x[0], x[1]) })
}

func F3(fn func(a, b, c float64) float64) Func {
	return scalar(3, func(x []float64) float64 { return fn(x[0], x[1], x[2]) })
}

func F4(fn func(a, b, c, d float64) float64) Func {
	return scalar(4, func(x []float64) float64 { return fn(x[0], x[1], x[2], x[3]) })
}

func F5(fn func(a, b, c, d, e float64) float64) Func {
	return scalar(5, func(x []float64) float64 { return fn(x[0], x[1], x[2], x[3], x[4]) })
}

func F6(fn func(a, b, c, d, e, f float64) float64) Func {
	return scalar(6, func(x []float64) float64 { return fn(x[0], x[1], x[2], x[3], x[4], x[5]) })
}

// FN wraps a scalar function taking its arguments as a slice. The slice is
// only valid for the duration of the call.
func FN(arity int, fn func(args []float64) float64) Func {
	return scalar(arity, fn)
}

// Multi wraps a function writing outputs values into out. Both slices are
// only valid for the duration of the call.
func Multi(arity, outputs int, fn func(args, out []float64)) Func {
	return Func{arity: arity, outputs: outputs, eval: fn}
}

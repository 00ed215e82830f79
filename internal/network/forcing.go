package network

// Forcing is a stateless rule mapping the evaluation time and a set of
// parameters to one or more effective values. Fn receives time as its first
// argument followed by the values of Params. It is evaluated on every call,
// before any module, and must be defined for every real time: adaptive
// solvers query times out of order and repeat them.
type Forcing struct {
	Name    string
	Outputs []string
	Fn      Func
	Params  []string
}

// Window is an on/off gate over the closed interval [Ton, Toff].
type Window struct {
	Ton  float64
	Toff float64
	On   float64
	Off  float64
}

// At returns On inside the window and Off outside it.
func (w Window) At(t float64) float64 {
	if t < w.Ton || t > w.Toff {
		return w.Off
	}
	return w.On
}

// Series evaluates the window at every time in ts.
func (w Window) Series(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = w.At(t)
	}
	return out
}

// WindowForcing builds a forcing whose single output follows a Window. The
// four parameter names supply Ton, Toff, the on value and the off value.
func WindowForcing(output, ton, toff, on, off string) Forcing {
	return Forcing{
		Name:    output,
		Outputs: []string{output},
		Params:  []string{ton, toff, on, off},
		Fn: F5(func(t, ton, toff, on, off float64) float64 {
			return Window{Ton: ton, Toff: toff, On: on, Off: off}.At(t)
		}),
	}
}

package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: series too short")

// Resample interpolates a series onto n evenly spaced times spanning the
// same interval and returns the samples with their spacing. Times must be
// non-decreasing.
func Resample(times, values []float64, n int) ([]float64, float64, error) {
	if len(times) != len(values) {
		return nil, 0, fmt.Errorf("analysis: %d times for %d values", len(times), len(values))
	}
	if len(times) < 2 || n < 2 {
		return nil, 0, ErrTooShort
	}
	t0, t1 := times[0], times[len(times)-1]
	if !(t1 > t0) {
		return nil, 0, ErrTooShort
	}

	h := (t1 - t0) / float64(n-1)
	out := make([]float64, n)
	j := 0
	for i := range out {
		t := t0 + float64(i)*h
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		span := times[j+1] - times[j]
		if span <= 0 {
			out[i] = values[j+1]
			continue
		}
		f := min(max((t-times[j])/span, 0), 1)
		out[i] = values[j] + f*(values[j+1]-values[j])
	}
	return out, h, nil
}

// PowerSpectrum returns the one-sided magnitude spectrum of evenly spaced
// samples with their mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// Oscillation is the strongest periodic component of a series. Share is
// the fraction of spectral power in that component, so a clean sine is
// close to 1 and a monotone relaxation spreads its power thinly.
type Oscillation struct {
	Frequency float64
	Period    float64
	Share     float64
}

// DominantPeriod resamples a trajectory onto samples points and locates
// the largest non-constant spectral bin. A constant series yields the zero
// Oscillation.
func DominantPeriod(times, values []float64, samples int) (Oscillation, error) {
	u, h, err := Resample(times, values, samples)
	if err != nil {
		return Oscillation{}, err
	}
	ps := PowerSpectrum(u)

	best, total := 0, 0.0
	for k := 1; k < len(ps); k++ {
		total += ps[k] * ps[k]
		if best == 0 || ps[k] > ps[best] {
			best = k
		}
	}
	if best == 0 || total == 0 {
		return Oscillation{}, nil
	}

	freq := float64(best) / (float64(len(u)) * h)
	return Oscillation{
		Frequency: freq,
		Period:    1 / freq,
		Share:     ps[best] * ps[best] / total,
	}, nil
}

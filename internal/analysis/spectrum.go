package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: need at least four samples")

// PowerSpectrum is the magnitude of the one-sided spectrum of data with its
// mean removed. Bin k is k/(len(data)*dt) Hz.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// BinFrequency converts a spectrum bin to Hz.
func BinFrequency(bin, n int, dt float64) float64 {
	return float64(bin) / (float64(n) * dt)
}

// DominantFrequency returns the strongest non-DC frequency of data sampled
// every dt seconds, and its magnitude. A flat signal reports 0 Hz.
func DominantFrequency(data []float64, dt float64) (float64, float64, error) {
	if len(data) < 4 {
		return 0, 0, ErrTooShort
	}
	ps := PowerSpectrum(data)

	best, bestIdx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, bestIdx = ps[i], i
		}
	}
	if best < 1e-9 {
		return 0, 0, nil
	}
	return BinFrequency(bestIdx, len(data), dt), best, nil
}

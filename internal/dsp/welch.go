package dsp

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySignal is returned when a spectral estimate is requested for no samples.
	ErrEmptySignal = errors.New("dsp: empty signal")
	// ErrShortSignal is returned for a single sample, which has no spectrum.
	ErrShortSignal = errors.New("dsp: signal shorter than two samples")
)

// Spectrum is a one-sided power spectral density estimate.
type Spectrum struct {
	Freqs []float64 // Hz, ascending from 0
	Power []float64 // units²/Hz
}

// Welch estimates the power spectral density of x sampled at fs Hz with Welch's
// averaged periodogram: periodic Hann segments of segLen samples (clamped to len(x)),
// 50% overlap, mean removed per segment, density scaling, one-sided.
// Segments are at least two samples long.
func Welch(x []float64, fs float64, segLen int) (Spectrum, error) {
	if len(x) == 0 || fs <= 0 {
		return Spectrum{}, ErrEmptySignal
	}
	if len(x) < 2 {
		return Spectrum{}, ErrShortSignal
	}
	if segLen <= 0 || segLen > len(x) {
		segLen = len(x)
	}
	segLen = max(segLen, 2)
	overlap := segLen / 2
	step := segLen - overlap
	segments := (len(x) - overlap) / step

	// Periodic Hann: the first segLen points of a symmetric window one longer.
	win := window.Hann(segLen + 1)[:segLen]
	var winPower float64
	for _, w := range win {
		winPower += w * w
	}
	scale := 1 / (fs * winPower)

	fft := fourier.NewFFT(segLen)
	bins := segLen/2 + 1
	power := make([]float64, bins)
	seg := make([]float64, segLen)
	var coeffs []complex128

	for s := 0; s < segments; s++ {
		chunk := x[s*step : s*step+segLen]
		mean := stat.Mean(chunk, nil)
		for i, v := range chunk {
			seg[i] = (v - mean) * win[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			a := cmplx.Abs(c)
			power[k] += a * a
		}
	}

	norm := scale / float64(segments)
	for k := range power {
		power[k] *= norm
		// Fold negative frequencies onto the positive side; DC and Nyquist have no mirror.
		if k > 0 && !(segLen%2 == 0 && k == bins-1) {
			power[k] *= 2
		}
	}

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * fs / float64(segLen)
	}
	return Spectrum{Freqs: freqs, Power: power}, nil
}

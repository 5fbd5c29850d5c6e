// Package dsp holds the numeric pieces of the EEG pipeline: zero-phase band-pass
// filtering, Welch power spectral density estimation and band power integration.
package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrInvalidBand is returned when a pass band does not fit the sampling rate.
var ErrInvalidBand = errors.New("dsp: invalid pass band")

// hammingLengthFactor is the filter length, in periods of the narrowest transition
// band, needed by a Hamming window to reach its stop-band attenuation.
const hammingLengthFactor = 3.3

// Bandpass is a linear-phase windowed-sinc FIR band-pass filter applied with zero phase shift.
type Bandpass struct {
	coeffs     []float64
	sampleRate float64
	low, high  float64
}

// NewBandpass designs a filter passing [low, high] Hz at the given sampling rate.
//
// Transition bands are chosen automatically: a quarter of the edge frequency, at least
// 2 Hz, but never wider than the room left down to 0 Hz or up to Nyquist. The cutoffs
// sit in the middle of each transition band.
func NewBandpass(sampleRate, low, high float64) (*Bandpass, error) {
	nyquist := sampleRate / 2
	if sampleRate <= 0 || low <= 0 || high <= low || high >= nyquist {
		return nil, fmt.Errorf("%w: [%g, %g] Hz at %g Hz sampling", ErrInvalidBand, low, high, sampleRate)
	}

	lTrans := math.Min(math.Max(0.25*low, 2), low)
	hTrans := math.Min(math.Max(0.25*high, 2), nyquist-high)

	n := int(math.Round(hammingLengthFactor * sampleRate / math.Min(lTrans, hTrans)))
	if n%2 == 0 {
		n++
	}

	f1 := (low - lTrans/2) / sampleRate
	f2 := (high + hTrans/2) / sampleRate
	win := window.Hamming(n)
	m := float64(n-1) / 2

	h := make([]float64, n)
	for i := range h {
		t := float64(i) - m
		h[i] = win[i] * (2*f2*sinc(2*f2*t) - 2*f1*sinc(2*f1*t))
	}

	// Scale for unit gain in the middle of the pass band.
	centre := (f1 + f2) / 2
	var g float64
	for i, c := range h {
		g += c * math.Cos(2*math.Pi*centre*(float64(i)-m))
	}
	for i := range h {
		h[i] /= g
	}

	return &Bandpass{coeffs: h, sampleRate: sampleRate, low: low, high: high}, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Coefficients returns a copy of the filter taps.
func (b *Bandpass) Coefficients() []float64 {
	out := make([]float64, len(b.coeffs))
	copy(out, b.coeffs)
	return out
}

// Len returns the number of taps (always odd).
func (b *Bandpass) Len() int { return len(b.coeffs) }

// Apply filters x without phase shift and returns a new slice of the same length.
// Edges are extended by odd reflection so the signal ends do not ring towards zero.
func (b *Bandpass) Apply(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	pad := len(b.coeffs) - 1
	padded := reflectPad(x, pad)
	full := Convolve(padded, b.coeffs)

	delay := (len(b.coeffs) - 1) / 2
	out := make([]float64, len(x))
	copy(out, full[pad+delay:pad+delay+len(x)])
	return out
}

// reflectPad extends x by pad samples on both sides using odd reflection about the
// end samples. Reflection stops at the signal length; the remainder is zero.
func reflectPad(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	copy(out[pad:], x)
	r := min(pad, n-1)
	for i := 1; i <= r; i++ {
		out[pad-i] = 2*x[0] - x[i]
		out[pad+n-1+i] = 2*x[n-1] - x[n-1-i]
	}
	return out
}

// Convolve returns the full linear convolution of x and h, of length len(x)+len(h)-1,
// computed with a real FFT.
func Convolve(x, h []float64) []float64 {
	if len(x) == 0 || len(h) == 0 {
		return nil
	}
	outLen := len(x) + len(h) - 1
	n := nextPow2(outLen)
	fft := fourier.NewFFT(n)

	xs := make([]float64, n)
	copy(xs, x)
	hs := make([]float64, n)
	copy(hs, h)

	xc := fft.Coefficients(nil, xs)
	hc := fft.Coefficients(nil, hs)
	for i := range xc {
		xc[i] *= hc[i]
	}
	y := fft.Sequence(nil, xc)

	// Sequence is unnormalized.
	scale := 1 / float64(n)
	out := y[:outLen]
	for i := range out {
		out[i] *= scale
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

package dsp

import "gonum.org/v1/gonum/integrate"

// BandPower integrates psd over the bins whose frequency lies in the closed interval
// [fmin, fmax] using the trapezoidal rule. Fewer than two bins in range integrate to 0.
// freqs must be ascending and the same length as psd.
func BandPower(psd, freqs []float64, fmin, fmax float64) float64 {
	var xs, ys []float64
	for i, f := range freqs {
		if f >= fmin && f <= fmax {
			xs = append(xs, f)
			ys = append(ys, psd[i])
		}
	}
	if len(xs) < 2 {
		return 0
	}
	return integrate.Trapezoidal(xs, ys)
}

// BandPower integrates the spectrum over [fmin, fmax].
func (s Spectrum) BandPower(fmin, fmax float64) float64 {
	return BandPower(s.Power, s.Freqs, fmin, fmax)
}

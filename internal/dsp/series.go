package dsp

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when matrices that must align do not.
var ErrShapeMismatch = errors.New("dsp: shape mismatch")

// ChannelMean returns the sample-wise mean across channels.
func ChannelMean(data [][]float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	out := make([]float64, len(data[0]))
	for _, ch := range data {
		floats.Add(out, ch)
	}
	floats.Scale(1/float64(len(data)), out)
	return out
}

// GrandAverage truncates every channels × time matrix to the shortest sample count and
// returns their element-wise mean. All matrices must have the same number of channels.
func GrandAverage(matrices [][][]float64) ([][]float64, error) {
	if len(matrices) == 0 {
		return nil, nil
	}
	channels := len(matrices[0])
	n := -1
	for _, m := range matrices {
		if len(m) != channels {
			return nil, ErrShapeMismatch
		}
		for _, ch := range m {
			if n == -1 || len(ch) < n {
				n = len(ch)
			}
		}
	}
	if n < 0 {
		n = 0
	}

	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, n)
		for _, m := range matrices {
			floats.Add(out[c], m[c][:n])
		}
		floats.Scale(1/float64(len(matrices)), out[c])
	}
	return out, nil
}

// ResampleLinear stretches x to n samples by linear interpolation between neighbours.
// It is used to bring slower channels of a recording up to the fastest rate.
func ResampleLinear(x []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case n == 0 || len(x) == 0:
		return out
	case len(x) == 1:
		for i := range out {
			out[i] = x[0]
		}
		return out
	case len(x) == n:
		copy(out, x)
		return out
	}
	ratio := float64(len(x)) / float64(n)
	last := len(x) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = x[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = x[j] + frac*(x[j+1]-x[j])
	}
	return out
}

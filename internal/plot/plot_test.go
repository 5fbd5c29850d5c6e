package plot

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eegweb/internal/dsp"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func sine(n int, fs, freq, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func TestTraces(t *testing.T) {
	r := newRenderer(t)
	data := [][]float64{sine(2560, 256, 10, 40), sine(2560, 256, 6, 40), make([]float64, 2560)}

	var buf bytes.Buffer
	err := r.Traces(&buf, Traces{
		Title:      "EEG Signal – demo.edf",
		SampleRate: 256,
		Labels:     []string{"Fp1", "Fp2", "C3"},
		Data:       data,
		Window:     1,
		Spacing:    150,
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, TimeWidth, img.Bounds().Dx())
	assert.Equal(t, TimeHeight, img.Bounds().Dy())
}

func TestTracesFlatSingleChannel(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	err := r.Traces(&buf, Traces{SampleRate: 256, Data: [][]float64{make([]float64, 100)}, Window: 5, Spacing: 150})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestTracesErrors(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer

	assert.ErrorIs(t, r.Traces(&buf, Traces{SampleRate: 256, Window: 1}), ErrNoData)
	assert.ErrorIs(t, r.Traces(&buf, Traces{SampleRate: 0, Data: [][]float64{{1, 2}}, Window: 1}), ErrNoData)
	assert.Error(t, r.Traces(&buf, Traces{SampleRate: 256, Data: [][]float64{{1, 2}}, Window: 0}))
	assert.Error(t, r.Traces(&buf, Traces{SampleRate: 256, Data: [][]float64{{1, 2}}, Window: math.NaN()}))
}

func TestPSD(t *testing.T) {
	r := newRenderer(t)
	spec, err := dsp.Welch(sine(2560, 256, 10, 20), 256, 2048)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.PSD(&buf, spec))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, PSDWidth, img.Bounds().Dx())
	assert.Equal(t, PSDHeight, img.Bounds().Dy())
}

func TestPSDAllZero(t *testing.T) {
	r := newRenderer(t)
	spec, err := dsp.Welch(make([]float64, 2560), 256, 2048)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, r.PSD(&buf, spec))
}

func TestPSDErrors(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	assert.ErrorIs(t, r.PSD(&buf, dsp.Spectrum{}), ErrNoData)
	assert.ErrorIs(t, r.PSD(&buf, dsp.Spectrum{Freqs: []float64{0, 1}, Power: []float64{1}}), ErrNoData)
}

func TestNiceStep(t *testing.T) {
	assert.InDelta(t, 0.1, niceStep(1, 10), 1e-12)
	assert.InDelta(t, 20, niceStep(128, 8), 1e-12)
	assert.InDelta(t, 0.5, niceStep(4, 10), 1e-12)
	assert.Equal(t, 1.0, niceStep(0, 10))
}

func TestLinearTicks(t *testing.T) {
	ticks := linearTicks(0, 1, 10)
	require.Len(t, ticks, 11)
	assert.Equal(t, "0", ticks[0].Label)
	assert.Equal(t, "0.3", ticks[3].Label)
	assert.Equal(t, "1", ticks[10].Label)
}

func TestDecadeTicks(t *testing.T) {
	ticks := decadeTicks(-3, 1)
	require.Len(t, ticks, 5)
	assert.Equal(t, "1e-3", ticks[0].Label)
	assert.Equal(t, "1e1", ticks[4].Label)

	assert.LessOrEqual(t, len(decadeTicks(-20, 4)), 9)
}

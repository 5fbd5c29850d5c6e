package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandLabel(t *testing.T) {
	assert.Equal(t, "Delta (0.5–4 Hz)", Band{Name: "Delta", Low: 0.5, High: 4}.Label())
	assert.Equal(t, "Beta (13–30 Hz)", Band{Name: "Beta", Low: 13, High: 30}.Label())
}

func TestDefaultBandsContiguous(t *testing.T) {
	bands := DefaultBands()
	assert.Len(t, bands, 5)
	assert.Equal(t, 0.5, bands[0].Low)
	assert.Equal(t, 40.0, bands[len(bands)-1].High)
	for i := 1; i < len(bands); i++ {
		assert.Equal(t, bands[i-1].High, bands[i].Low)
	}
}

func TestRecording(t *testing.T) {
	r := &Recording{
		SampleRate: 4,
		Channels:   []string{"a", "b", "c"},
		Data:       [][]float64{{1, 2, 3, 4, 5}, {1, 2, 3, 4, 5}, {1, 2, 3, 4, 5}},
	}
	assert.Equal(t, 5, r.Samples())
	assert.Equal(t, 1.0, r.Duration())

	h := r.Head(2)
	assert.Equal(t, []string{"a", "b"}, h.Channels)
	assert.Len(t, h.Data, 2)
	assert.Len(t, r.Head(10).Channels, 3)

	assert.Equal(t, 0.0, (&Recording{}).Duration())
}

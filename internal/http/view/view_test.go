package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eegweb/internal/config"
	"eegweb/internal/model"
	"eegweb/internal/service"
)

func TestIndex(t *testing.T) {
	v, err := New(config.DefaultAnalysis())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.Index(&buf))
	html := buf.String()
	assert.Contains(t, html, `action="/upload"`)
	assert.Contains(t, html, `name="eegfiles"`)
	assert.Contains(t, html, "first 6 channels")
}

func TestResult(t *testing.T) {
	v, err := New(config.DefaultAnalysis())
	require.NoError(t, err)

	res := &service.AnalysisResult{
		RunID:     "run",
		Files:     []string{"a.edf", `"><script>.edf`},
		Timescale: 2.5,
		Summaries: []model.Summary{{
			Filename:        "a.edf",
			Channels:        8,
			PlottedChannels: 6,
			SampleRate:      256,
			Duration:        10,
			Size:            "123 kB",
			TimePlot:        "/static/run/time_0.png",
			PSDPlot:         "/static/run/psd_0.png",
			Bands: []model.BandPower{
				{Band: model.Band{Name: "Alpha", Low: 8, High: 13}, Power: 812.3456},
			},
		}},
		AveragePlot: "/static/run/average_1.png",
	}

	var buf bytes.Buffer
	require.NoError(t, v.Result(&buf, res))
	html := buf.String()

	assert.Contains(t, html, `value="2.5"`)
	assert.Contains(t, html, `<input type="hidden" name="filepaths" value="a.edf" />`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "8 (6 plotted)")
	assert.Contains(t, html, "Alpha (8–13 Hz)")
	assert.Contains(t, html, "812.35")
	assert.Contains(t, html, `src="/static/run/time_0.png"`)
	assert.Contains(t, html, `src="/static/run/average_1.png"`)
}

func TestResultWithoutAverage(t *testing.T) {
	v, err := New(config.DefaultAnalysis())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.Result(&buf, &service.AnalysisResult{Timescale: 1, Files: []string{"a.edf"}}))
	assert.NotContains(t, buf.String(), "Grand average")
}

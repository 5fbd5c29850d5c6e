// Package plot renders EEG traces and power spectra to PNG.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font/gofont/goregular"

	"eegweb/internal/dsp"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("plot: no data")

// Default canvas sizes in pixels: 12×6 in and 6.4×4.8 in at 150 dpi.
const (
	TimeWidth  = 1800
	TimeHeight = 900
	PSDWidth   = 960
	PSDHeight  = 720
	dpi        = 150
)

// PSD floor relative to the peak, so zero bins stay finite on a log axis.
const psdFloorRatio = 1e-12

// Line colours, cycled per channel.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

// Traces describes a stacked multi-channel time plot.
type Traces struct {
	Title      string
	SampleRate float64
	Labels     []string
	Data       [][]float64 // channels × samples, µV
	Window     float64     // seconds shown, starting at 0
	Spacing    float64     // vertical offset between consecutive channels, µV
}

// Renderer draws charts with a fixed font. It is safe for concurrent use.
type Renderer struct {
	font *truetype.Font
}

// NewRenderer parses the embedded Go Regular font.
func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// Traces renders t as a PNG. Channel i is drawn at offset i·Spacing and labelled on the
// y axis. Only samples inside [0, Window] seconds are drawn.
func (r *Renderer) Traces(w io.Writer, t Traces) error {
	if len(t.Data) == 0 || len(t.Data[0]) == 0 || t.SampleRate <= 0 {
		return ErrNoData
	}
	if !(t.Window > 0) {
		return fmt.Errorf("plot: window must be positive, got %g", t.Window)
	}

	n := len(t.Data[0])
	if limit := int(math.Floor(t.Window*t.SampleRate)) + 1; limit < n {
		n = limit
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / t.SampleRate
	}

	series := make([]chart.Series, 0, len(t.Data))
	ticks := make([]chart.Tick, 0, len(t.Data))
	lo, hi := math.Inf(1), math.Inf(-1)
	for c, ch := range t.Data {
		offset := float64(c) * t.Spacing
		ys := make([]float64, n)
		for i := range ys {
			if i < len(ch) {
				ys[i] = ch[i] + offset
			} else {
				ys[i] = offset
			}
			lo, hi = math.Min(lo, ys[i]), math.Max(hi, ys[i])
		}
		label := fmt.Sprintf("ch%d", c)
		if c < len(t.Labels) {
			label = t.Labels[c]
		}
		ticks = append(ticks, chart.Tick{Value: offset, Label: label})
		series = append(series, chart.ContinuousSeries{
			Name:    label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: 1,
				StrokeColor: palette[c%len(palette)],
			},
		})
	}

	pad := t.Spacing / 2
	if pad <= 0 {
		pad = 1
	}
	ch := chart.Chart{
		Title:  t.Title,
		Width:  TimeWidth,
		Height: TimeHeight,
		DPI:    dpi,
		Font:   r.font,
		XAxis: chart.XAxis{
			Name:  "Time (s)",
			Range: &chart.ContinuousRange{Min: 0, Max: t.Window},
			Ticks: linearTicks(0, t.Window, 10),
		},
		YAxis: chart.YAxis{
			Name:  "Channels (µV)",
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			Ticks: ticks,
		},
		Series: series,
	}
	return ch.Render(chart.PNG, w)
}

// PSD renders s on a log10 power axis labelled in decades.
func (r *Renderer) PSD(w io.Writer, s dsp.Spectrum) error {
	if len(s.Freqs) == 0 || len(s.Freqs) != len(s.Power) {
		return ErrNoData
	}

	peak := 0.0
	for _, p := range s.Power {
		peak = math.Max(peak, p)
	}
	floor := psdFloorRatio
	if peak > 0 {
		floor = peak * psdFloorRatio
	}
	ys := make([]float64, len(s.Power))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range s.Power {
		ys[i] = math.Log10(math.Max(p, floor))
		lo, hi = math.Min(lo, ys[i]), math.Max(hi, ys[i])
	}
	lo, hi = math.Floor(lo), math.Ceil(hi)
	if hi <= lo {
		hi = lo + 1
	}

	fmax := s.Freqs[len(s.Freqs)-1]
	if fmax <= 0 {
		fmax = 1
	}
	ch := chart.Chart{
		Title:  "Power Spectral Density",
		Width:  PSDWidth,
		Height: PSDHeight,
		DPI:    dpi,
		Font:   r.font,
		XAxis: chart.XAxis{
			Name:  "Frequency (Hz)",
			Range: &chart.ContinuousRange{Min: 0, Max: fmax},
			Ticks: linearTicks(0, fmax, 8),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			Ticks: decadeTicks(lo, hi),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: s.Freqs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 1,
					StrokeColor: palette[0],
				},
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

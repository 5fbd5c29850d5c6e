package model

import (
	"fmt"
	"strconv"
)

// Band is a named physiological EEG frequency range in Hz.
type Band struct {
	Name string  `json:"name" yaml:"name"`
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Label renders the band as shown on result pages, e.g. "Alpha (8–13 Hz)".
func (b Band) Label() string {
	return fmt.Sprintf("%s (%s–%s Hz)", b.Name, trimFloat(b.Low), trimFloat(b.High))
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultBands are the canonical EEG bands, contiguous over 0.5–40 Hz.
func DefaultBands() []Band {
	return []Band{
		{Name: "Delta", Low: 0.5, High: 4},
		{Name: "Theta", Low: 4, High: 8},
		{Name: "Alpha", Low: 8, High: 13},
		{Name: "Beta", Low: 13, High: 30},
		{Name: "Gamma", Low: 30, High: 40},
	}
}

// BandPower is the integrated PSD over one band.
type BandPower struct {
	Band  Band    `json:"band"`
	Power float64 `json:"power"`
}

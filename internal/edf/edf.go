// Package edf reads and writes European Data Format recordings (EDF, EDF+)
// and the 24-bit BioSemi variant (BDF).
package edf

import (
	"errors"
	"strings"
	"time"
)

// ErrFormat is wrapped by every error caused by malformed input.
var ErrFormat = errors.New("edf: invalid format")

// Format identifies the on-disk sample encoding.
type Format int

const (
	// FormatEDF stores samples as little-endian int16.
	FormatEDF Format = iota
	// FormatBDF stores samples as little-endian int24.
	FormatBDF
)

func (f Format) String() string {
	if f == FormatBDF {
		return "BDF"
	}
	return "EDF"
}

func (f Format) bytesPerSample() int {
	if f == FormatBDF {
		return 3
	}
	return 2
}

// Header holds the fixed part of the file header.
type Header struct {
	Format         Format
	Patient        string
	Recording      string
	Start          time.Time
	Reserved       string
	NumRecords     int
	RecordDuration float64 // seconds
}

// Signal is one stored signal. Samples are physical values in PhysicalDimension units.
type Signal struct {
	Label             string
	Transducer        string
	PhysicalDimension string
	PhysicalMin       float64
	PhysicalMax       float64
	DigitalMin        int
	DigitalMax        int
	Prefiltering      string
	SamplesPerRecord  int
	Samples           []float64
}

// IsAnnotation reports whether s is an EDF+/BDF+ annotation channel rather than data.
func (s Signal) IsAnnotation() bool {
	l := strings.TrimSpace(s.Label)
	return l == "EDF Annotations" || l == "BDF Annotations"
}

// SampleRate returns the sampling frequency in Hz for the given record duration.
func (s Signal) SampleRate(recordDuration float64) float64 {
	if recordDuration <= 0 {
		return 0
	}
	return float64(s.SamplesPerRecord) / recordDuration
}

// unitScales maps physical dimensions to their factor relative to volts.
var unitScales = map[string]float64{
	"v":  1,
	"mv": 1e-3,
	"uv": 1e-6,
	"µv": 1e-6,
	"μv": 1e-6,
	"nv": 1e-9,
}

// UnitScale returns the factor converting the signal's physical values to volts.
// Unknown dimensions are assumed to be volts already.
func (s Signal) UnitScale() float64 {
	if f, ok := unitScales[strings.ToLower(strings.TrimSpace(s.PhysicalDimension))]; ok {
		return f
	}
	return 1
}

// File is a fully decoded recording.
type File struct {
	Header  Header
	Signals []Signal
}

// DataSignals returns the signals that carry samples, skipping annotation channels.
func (f *File) DataSignals() []Signal {
	out := make([]Signal, 0, len(f.Signals))
	for _, s := range f.Signals {
		if !s.IsAnnotation() {
			out = append(out, s)
		}
	}
	return out
}

// Duration returns the recorded length in seconds.
func (f *File) Duration() float64 {
	return float64(f.Header.NumRecords) * f.Header.RecordDuration
}

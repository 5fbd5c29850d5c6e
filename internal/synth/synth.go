// Package synth builds deterministic synthetic EEG recordings for demos and tests.
package synth

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"eegweb/internal/edf"
)

// Component is one sinusoid mixed into every channel.
type Component struct {
	Freq      float64 // Hz
	Amplitude float64 // µV
}

// Params describes a synthetic recording.
type Params struct {
	Seconds    int
	SampleRate int
	Channels   int
	Components []Component
	NoiseUV    float64 // standard deviation of added Gaussian noise
	Flat       bool    // all-zero samples, ignores Components and NoiseUV
	Seed       int64
}

// DefaultParams returns a 10 s, 6 channel, 256 Hz recording with a dominant alpha rhythm.
func DefaultParams() Params {
	return Params{
		Seconds:    10,
		SampleRate: 256,
		Channels:   6,
		Components: []Component{
			{Freq: 2, Amplitude: 15},
			{Freq: 6, Amplitude: 10},
			{Freq: 10, Amplitude: 40},
			{Freq: 20, Amplitude: 8},
			{Freq: 35, Amplitude: 3},
		},
		NoiseUV: 5,
		Seed:    1,
	}
}

var montage = []string{
	"Fp1", "Fp2", "F3", "F4", "C3", "C4", "P3", "P4", "O1", "O2",
	"F7", "F8", "T3", "T4", "T5", "T6", "Fz", "Cz", "Pz",
}

// ChannelName returns the label used for channel i.
func ChannelName(i int) string {
	if i < len(montage) {
		return montage[i]
	}
	return fmt.Sprintf("EEG%03d", i+1)
}

// Recording builds the recording described by p. Samples are in microvolts.
func Recording(p Params) (*edf.File, error) {
	if p.Seconds <= 0 || p.SampleRate <= 0 || p.Channels <= 0 {
		return nil, errors.New("synth: seconds, sample rate and channels must be positive")
	}
	rng := rand.New(rand.NewSource(p.Seed))
	n := p.Seconds * p.SampleRate

	f := &edf.File{
		Header: edf.Header{
			Patient:        "X X X Synthetic",
			Recording:      "Startdate X X X synth",
			RecordDuration: 1,
		},
		Signals: make([]edf.Signal, p.Channels),
	}
	for c := range f.Signals {
		samples := make([]float64, n)
		if !p.Flat {
			for _, comp := range p.Components {
				phase := rng.Float64() * 2 * math.Pi
				w := 2 * math.Pi * comp.Freq / float64(p.SampleRate)
				for i := range samples {
					samples[i] += comp.Amplitude * math.Sin(w*float64(i)+phase)
				}
			}
			if p.NoiseUV > 0 {
				for i := range samples {
					samples[i] += rng.NormFloat64() * p.NoiseUV
				}
			}
		}
		f.Signals[c] = edf.Signal{
			Label:             ChannelName(c),
			Transducer:        "AgAgCl electrode",
			PhysicalDimension: "uV",
			SamplesPerRecord:  p.SampleRate,
			Samples:           samples,
		}
	}
	return f, nil
}

// Write encodes the recording described by p as EDF.
func Write(w io.Writer, p Params) error {
	f, err := Recording(p)
	if err != nil {
		return err
	}
	return edf.Encode(w, f)
}

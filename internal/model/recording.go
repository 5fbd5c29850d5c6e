package model

// Recording is a decoded EEG file with every channel at a common sampling rate.
// Data is channels × time in microvolts. A Recording is built per request and never cached.
type Recording struct {
	Filename   string
	SampleRate float64
	Channels   []string
	Data       [][]float64
}

// Samples returns the number of samples per channel.
func (r *Recording) Samples() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Duration returns the time of the last sample in seconds.
func (r *Recording) Duration() float64 {
	n := r.Samples()
	if n == 0 || r.SampleRate <= 0 {
		return 0
	}
	return float64(n-1) / r.SampleRate
}

// Head returns a view over the first n channels. The sample slices are shared.
func (r *Recording) Head(n int) *Recording {
	n = min(n, len(r.Channels))
	return &Recording{
		Filename:   r.Filename,
		SampleRate: r.SampleRate,
		Channels:   r.Channels[:n],
		Data:       r.Data[:n],
	}
}

package model

// Summary describes one analysed recording as rendered on the results page.
type Summary struct {
	Filename        string      `json:"filename"`
	Channels        int         `json:"channels"`
	PlottedChannels int         `json:"plotted_channels"`
	SampleRate      float64     `json:"sfreq"`
	Duration        float64     `json:"duration"`
	Size            string      `json:"size"`
	TimePlot        string      `json:"time_plot"`
	PSDPlot         string      `json:"psd_plot"`
	Bands           []BandPower `json:"bands"`
}

package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	filesProcessed *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		filesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eeg_files_processed_total",
				Help: "Total number of recordings run through the single-file pipeline.",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eeg_pipeline_stage_seconds",
				Help:    "Duration of each pipeline stage.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"stage"},
		),
	}
	for _, c := range []prometheus.Collector{m.filesProcessed, m.stageDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) fileDone(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.filesProcessed.WithLabelValues(outcome).Inc()
}

// Package metrics exposes scanner counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelscan.ai/internal/sonar"
)

// Metrics owns its registry so several scanners (and tests) can coexist in
// one process.
type Metrics struct {
	reg *prometheus.Registry

	sweeps   prometheus.Counter
	scanned  prometheus.Counter
	matches  *prometheus.CounterVec
	stored   prometheus.Gauge
	duration prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		sweeps: f.NewCounter(prometheus.CounterOpts{
			Name: "voxelscan_sweeps_total",
			Help: "Finished pings and waves.",
		}),
		scanned: f.NewCounter(prometheus.CounterOpts{
			Name: "voxelscan_voxels_scanned_total",
			Help: "Voxel lookups made by sweeps.",
		}),
		matches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxelscan_matches_total",
			Help: "Interesting blocks found, by block id.",
		}, []string{"block"}),
		stored: f.NewGauge(prometheus.GaugeOpts{
			Name: "voxelscan_echoes",
			Help: "Echoes held after the last sweep.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxelscan_sweep_duration_seconds",
			Help:    "Wall time from ping to last slice.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordSweep makes Metrics a sonar.SweepRecorder.
func (m *Metrics) RecordSweep(sw sonar.Sweep) {
	m.sweeps.Inc()
	m.scanned.Add(float64(sw.Scanned))
	for _, p := range sw.Found {
		m.matches.WithLabelValues(p.ID.String()).Inc()
	}
	m.stored.Set(float64(sw.Stored))
	if d := sw.Finished - sw.Started; d >= 0 {
		m.duration.Observe(float64(d) / 1000)
	}
}

// Gauge registers a gauge read from fn at scrape time.
func (m *Metrics) Gauge(name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

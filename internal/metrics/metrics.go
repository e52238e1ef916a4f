// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry
// so multiple instances (as in tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	PredictionsTotal *prometheus.CounterVec
	PredictedRUL     prometheus.Histogram
	DriftDetected    prometheus.Gauge
	MaxDeviationPct  prometheus.Gauge
	WindowSize       prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rulserve_predictions_total",
			Help: "Served RUL predictions by engine health status.",
		}, []string{"status"}),
		PredictedRUL: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulserve_predicted_rul_cycles",
			Help:    "Distribution of predicted Remaining Useful Life in cycles.",
			Buckets: prometheus.LinearBuckets(0, 12.5, 11), // 0..125
		}),
		DriftDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rulserve_drift_detected",
			Help: "1 when the most recent drift evaluation detected drift.",
		}),
		MaxDeviationPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rulserve_drift_max_deviation_pct",
			Help: "Maximum per-feature deviation from baseline at the last evaluation.",
		}),
		WindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rulserve_monitoring_window_size",
			Help: "Number of observations currently in the monitoring window.",
		}),
	}

	reg.MustRegister(
		m.PredictionsTotal,
		m.PredictedRUL,
		m.DriftDetected,
		m.MaxDeviationPct,
		m.WindowSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the exposition endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePrediction records one served prediction.
func (m *Metrics) ObservePrediction(status string, rul float64) {
	m.PredictionsTotal.WithLabelValues(status).Inc()
	m.PredictedRUL.Observe(rul)
}

// ObserveDrift records the outcome of a drift evaluation.
func (m *Metrics) ObserveDrift(detected bool, maxDeviationPct float64, windowSize int) {
	if detected {
		m.DriftDetected.Set(1)
	} else {
		m.DriftDetected.Set(0)
	}
	m.MaxDeviationPct.Set(maxDeviationPct)
	m.WindowSize.Set(float64(windowSize))
}

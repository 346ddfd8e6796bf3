// Package metrics exposes Prometheus collectors for provider uploads and
// history writes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawen554/uploader/internal/models"
)

const (
	namespace = "uploader"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Metrics struct {
	uploads         *prometheus.CounterVec
	uploadDuration  *prometheus.HistogramVec
	persistFailures prometheus.Counter
	runsActive      prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg and panics on duplicate
// registration. Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "uploads_total",
				Help:      "Provider uploads by service and outcome.",
			},
			[]string{"service", "outcome"},
		),
		uploadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "upload_duration_seconds",
				Help:      "Time spent uploading a file to a provider.",
				Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"service"},
		),
		persistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "persist_failures_total",
				Help:      "Upload history writes that failed.",
			},
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "runs_active",
				Help:      "Orchestration runs currently waiting on providers.",
			},
		),
	}

	reg.MustRegister(m.uploads, m.uploadDuration, m.persistFailures, m.runsActive)

	return m
}

func (m *Metrics) ObserveUpload(result models.UploadResult, elapsed time.Duration) {
	outcome := OutcomeFailure
	if result.Success {
		outcome = OutcomeSuccess
	}
	m.uploads.WithLabelValues(string(result.Service), outcome).Inc()
	m.uploadDuration.WithLabelValues(string(result.Service)).Observe(elapsed.Seconds())
}

func (m *Metrics) PersistFailed() {
	m.persistFailures.Inc()
}

func (m *Metrics) RunStarted() {
	m.runsActive.Inc()
}

func (m *Metrics) RunFinished() {
	m.runsActive.Dec()
}

// Package metrics provides Prometheus metrics for forecast runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revforecast"

// Run outcomes
const (
	OutcomeOK              = "ok"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeEngineError     = "engine_error"
	OutcomeCommentaryError = "commentary_error"
	OutcomeCanceled        = "canceled"
)

// Metrics holds the collectors registered for a single process
type Metrics struct {
	// RunsTotal counts pipeline runs by outcome.
	RunsTotal *prometheus.CounterVec

	// StageDuration measures each pipeline stage in seconds.
	StageDuration *prometheus.HistogramVec

	// Observations observes the number of normalized observations per run.
	Observations prometheus.Histogram

	// HorizonDays observes the requested forecast horizon.
	HorizonDays prometheus.Histogram

	// CommentaryRequestsTotal counts chat completion requests by HTTP status class.
	CommentaryRequestsTotal *prometheus.CounterVec
}

// New registers the collectors with reg. A nil registerer leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of forecast runs",
			},
			[]string{"outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of forecast pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		Observations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observations",
				Help:      "Distribution of normalized observations per run",
				Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
		HorizonDays: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "horizon_days",
				Help:      "Distribution of requested forecast horizons in days",
				Buckets:   []float64{0, 30, 90, 180, 360, 720},
			},
		),
		CommentaryRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commentary_requests_total",
				Help:      "Total number of chat completion requests",
			},
			[]string{"status"},
		),
	}
}

// RecordRun records the outcome of a pipeline run.
func (m *Metrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records the duration of a stage since start.
func (m *Metrics) RecordStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordInput records the size of a run's input and horizon.
func (m *Metrics) RecordInput(observations, horizonDays int) {
	if m == nil {
		return
	}
	m.Observations.Observe(float64(observations))
	m.HorizonDays.Observe(float64(horizonDays))
}

// RecordCommentaryRequest records a chat completion request by status, e.g. 2xx or error.
func (m *Metrics) RecordCommentaryRequest(status string) {
	if m == nil {
		return
	}
	m.CommentaryRequestsTotal.WithLabelValues(status).Inc()
}

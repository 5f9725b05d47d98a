package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation service.
type Metrics struct {
	// Runs by terminal status: "complete", "partial", "failed"
	RunsTotal *prometheus.CounterVec

	// Validator failures (error, timeout, panic) by category
	ValidatorFailures *prometheus.CounterVec

	// Pages that fell back to OCR during analysis
	OCRFallbacks prometheus.Counter

	// Progress events dropped because the subscriber lagged
	ProgressDropped prometheus.Counter

	// End-to-end run duration
	RunDuration prometheus.Histogram

	// Staged documents currently held on disk
	ActiveSessions prometheus.Gauge
}

// New creates a Metrics instance with all service metrics registered.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drawcheck_runs_total",
			Help: "Total validation runs by terminal status",
		}, []string{"status"}),

		ValidatorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drawcheck_validator_failures_total",
			Help: "Validator executions that errored, timed out or panicked, by category",
		}, []string{"category"}),

		OCRFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcheck_ocr_fallback_pages_total",
			Help: "Pages whose native text was below the density threshold and went through OCR",
		}),

		ProgressDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcheck_progress_events_dropped_total",
			Help: "Progress events dropped because no subscriber was keeping up",
		}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawcheck_run_duration_seconds",
			Help:    "End-to-end validation run duration including analysis",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "drawcheck_active_sessions",
			Help: "Staged documents currently held on disk",
		}),
	}
}

// IncrementRun records a finished run by terminal status.
func (m *Metrics) IncrementRun(status string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(status).Inc()
	}
}

// IncrementValidatorFailure records a contained validator failure.
func (m *Metrics) IncrementValidatorFailure(category string) {
	if m != nil {
		m.ValidatorFailures.WithLabelValues(category).Inc()
	}
}

// IncrementOCRFallback records a page that went through OCR.
func (m *Metrics) IncrementOCRFallback() {
	if m != nil {
		m.OCRFallbacks.Inc()
	}
}

// IncrementProgressDropped records a dropped progress event.
func (m *Metrics) IncrementProgressDropped() {
	if m != nil {
		m.ProgressDropped.Inc()
	}
}

// ObserveRunDuration records the total run duration.
func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}

// SessionOpened bumps the active session gauge.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for scheduled maintenance jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful maintenance job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed maintenance job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SyncMetrics tracks reconciler cycles per collection.
type SyncMetrics struct {
	cycles   *prometheus.CounterVec
	rowHits  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSyncMetrics registers reconciler metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_cycles_total",
		Help: "Sync cycles by collection and outcome.",
	}, []string{"collection", "outcome"})
	rowHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_total",
		Help: "Rows touched during sync by collection and phase.",
	}, []string{"collection", "phase"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_cycle_duration_seconds",
		Help:    "Duration of sync cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
	reg.MustRegister(cycles, rowHits, duration)
	return &SyncMetrics{cycles: cycles, rowHits: rowHits, duration: duration}
}

// IncCycle records a completed or failed cycle for a collection.
func (m *SyncMetrics) IncCycle(collection, outcome string) {
	if m == nil || m.cycles == nil {
		return
	}
	m.cycles.WithLabelValues(normalizeLabel(collection), normalizeLabel(outcome)).Inc()
}

// AddRows accumulates rows processed in a phase.
func (m *SyncMetrics) AddRows(collection, phase string, n int) {
	if m == nil || m.rowHits == nil || n <= 0 {
		return
	}
	m.rowHits.WithLabelValues(normalizeLabel(collection), normalizeLabel(phase)).Add(float64(n))
}

// ObserveCycleDuration records how long a cycle took.
func (m *SyncMetrics) ObserveCycleDuration(collection string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(collection)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// Package metrics registers the Prometheus series shared by the job queue
// worker and the cron service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type counter int

const (
	success counter = iota
	failure
	deadLettered
	enqueued
)

var counterOpts = map[counter]prometheus.CounterOpts{
	success:      {Name: "job_success", Help: "Successful job executions."},
	failure:      {Name: "job_failure", Help: "Failed job executions, including ones that will be retried."},
	deadLettered: {Name: "job_dead_lettered", Help: "Jobs moved to the dead set after exhausting attempts."},
	enqueued:     {Name: "job_enqueued", Help: "Jobs accepted by the queue."},
}

// JobMetrics is labeled by job name. A nil *JobMetrics, or one built without
// a registerer, records nothing.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	counters map[counter]*prometheus.CounterVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	m := &JobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of job executions in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		counters: make(map[counter]*prometheus.CounterVec, len(counterOpts)),
	}
	reg.MustRegister(m.duration)
	for kind, opts := range counterOpts {
		vec := prometheus.NewCounterVec(opts, []string{"job"})
		reg.MustRegister(vec)
		m.counters[kind] = vec
	}
	return m
}

func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(label(job)).Observe(d.Seconds())
}

func (m *JobMetrics) IncSuccess(job string)      { m.inc(success, job) }
func (m *JobMetrics) IncFailure(job string)      { m.inc(failure, job) }
func (m *JobMetrics) IncDeadLettered(job string) { m.inc(deadLettered, job) }
func (m *JobMetrics) IncEnqueued(job string)     { m.inc(enqueued, job) }

func (m *JobMetrics) inc(kind counter, job string) {
	if m == nil {
		return
	}
	if vec, ok := m.counters[kind]; ok {
		vec.WithLabelValues(label(job)).Inc()
	}
}

func label(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}

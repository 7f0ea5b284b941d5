package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	jobsTotal      *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	activeJobs     prometheus.Gauge
	progressEvents prometheus.Counter
}

// NewMetrics registers pipeline metrics on the given registerer, which the
// API server's /metrics endpoint exposes.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subflow_pipeline_jobs_total",
			Help: "Total pipeline runs by final status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subflow_pipeline_job_duration_seconds",
			Help:    "Total processing duration for each job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "subflow_pipeline_active_jobs",
			Help: "Current number of jobs with a running pipeline.",
		}),
		progressEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subflow_pipeline_progress_events_total",
			Help: "Total progress callbacks received from the transcription stage.",
		}),
	}
	reg.MustRegister(m.jobsTotal, m.jobDuration, m.activeJobs, m.progressEvents)
	return m
}

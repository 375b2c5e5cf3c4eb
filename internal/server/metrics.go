package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobsStarted counts accepted search jobs.
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hillclimb_jobs_started_total",
		Help: "Total search jobs accepted",
	})

	// jobsFinished counts finished jobs.
	// Labels: "completed", "failed", "cancelled"
	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hillclimb_jobs_finished_total",
		Help: "Total search jobs finished by final status",
	}, []string{"status"})

	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hillclimb_iterations_total",
		Help: "Mutations performed across all jobs",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hillclimb_run_duration_seconds",
		Help:    "Wall time of completed search runs",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	// improvementRatio is best length divided by seed length for completed runs.
	improvementRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hillclimb_improvement_ratio",
		Help:    "Best tour length relative to the seed tour",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 0.99, 1},
	})

	// jobsEvicted counts retired jobs.
	// Labels: "removed" (served from the store afterwards), "compacted"
	jobsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hillclimb_jobs_evicted_total",
		Help: "Finished jobs retired from memory after the retention period",
	}, []string{"mode"})

	activeJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hillclimb_active_jobs",
		Help: "Search jobs currently running",
	})
)

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	AssessmentsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_computed_total",
			Help: "Assessments scored, by maturity level",
		},
		[]string{"level"},
	)

	AssessmentTotalScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_total_score",
			Help:    "Distribution of composite assessment scores",
			Buckets: []float64{10, 25, 45, 65, 85, 100},
		},
	)

	BenchmarkLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_lookups_total",
			Help: "Benchmark snapshot lookups by dimension and outcome (hit, miss, error, skipped)",
		},
		[]string{"dimension", "outcome"},
	)

	BenchmarkUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchmark_unavailable_total",
			Help: "Assessments returned without one or more benchmark comparisons because of a lookup failure",
		},
	)

	BenchmarkRefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_refresh_runs_total",
			Help: "Benchmark snapshot refresh runs by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveJob records the outcome of one job. errorCode is empty on success.
func ObserveJob(taskType string, started time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(started).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

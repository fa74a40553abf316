package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(workerTasksTotal, workerQueueDepth, scheduledRunsTotal, scheduledRunSeconds) }

var (
	workerTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_tasks_total",
			Help: "Tasks run by the background worker pool, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed', 'panic'
	)

	workerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Tasks waiting in the worker pool queue.",
		},
	)

	scheduledRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Runs of periodic jobs, labeled by job and result.",
		},
		[]string{"job", "result"},
	)

	scheduledRunSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduled_job_duration_seconds",
			Help:    "Duration of periodic job runs.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"job"},
	)
)

func IncWorkerTask(status string) {
	workerTasksTotal.WithLabelValues(norm(status)).Inc()
}

func SetWorkerQueueDepth(n int) {
	workerQueueDepth.Set(float64(n))
}

// ObserveScheduledRun records one periodic job run.
func ObserveScheduledRun(job string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	scheduledRunsTotal.WithLabelValues(norm(job), result).Inc()
	scheduledRunSeconds.WithLabelValues(norm(job)).Observe(d.Seconds())
}

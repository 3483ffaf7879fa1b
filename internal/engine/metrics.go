package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dguard_tasks_submitted_total",
			Help: "Total number of admitted tasks.",
		},
		[]string{"operation"},
	)

	tasksRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dguard_tasks_rejected_total",
			Help: "Total number of submissions refused at admission.",
		},
		[]string{"operation", "reason"},
	)

	tasksFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dguard_tasks_finished_total",
			Help: "Total number of tasks delivered, by outcome.",
		},
		[]string{"operation", "status"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dguard_task_duration_seconds",
			Help:    "Time from a worker picking up a task to its delivery.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dguard_queue_depth",
			Help: "Number of tasks waiting for a worker.",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksSubmitted, tasksRejected, tasksFinished, taskDuration, queueDepth)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotRunning):
		return "not_running"
	case errors.Is(err, ErrArity):
		return "arity"
	case errors.Is(err, ErrType):
		return "type"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "other"
	}
}

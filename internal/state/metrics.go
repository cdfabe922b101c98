package state

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lumina/internal/task"
)

// Task Engine metrics, grounded on djryanj-media-viewer's internal/metrics
// package (one promauto-registered counter/gauge per concern, named with a
// project prefix).
var (
	taskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumina_task_runs_total",
			Help: "Total number of task run_and_store completions, by task name and outcome.",
		},
		[]string{"task", "outcome"},
	)

	taskRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumina_task_run_duration_seconds",
			Help:    "Duration of one task's run_and_store call.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	queueDrainProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumina_task_queue_drain_progress",
			Help: "Index of the most recently completed item in the current drain, by task queue.",
		},
		[]string{"task"},
	)
)

// ConsumeProgress drains ch, updating the Task Engine counters above for
// every event, until ch is closed. It is meant to run in its own goroutine
// alongside whatever drives Engine.RunQueue, since the progress channel is
// otherwise just an append-only notification stream (§5).
func ConsumeProgress(ch <-chan task.ProgressEvent) {
	for ev := range ch {
		outcome := "success"
		if ev.Err != nil {
			outcome = "failure"
		}
		taskRunsTotal.WithLabelValues(ev.Queue, outcome).Inc()
		taskRunDuration.WithLabelValues(ev.Queue).Observe(ev.Elapsed.Seconds())
		queueDrainProgress.WithLabelValues(ev.Queue).Set(float64(ev.Index))
	}
}

// MetricsHandler exposes the process's registered counters for scraping.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

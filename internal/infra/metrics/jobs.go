package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chatJobsTotal,
		chatJobStageSeconds,
		chatJobDispatchFailures,
		chatSubmitRateLimited,
	)
}

var (
	chatJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_jobs_total",
			Help: "Chat jobs by lifecycle event.",
		},
		[]string{"status"}, // 'submitted', 'completed', 'failed', 'skipped'
	)

	chatJobStageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_job_stage_seconds",
			Help:    "Duration of each processing stage.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"}, // 'fetch', 'plan', 'filter', 'generate'
	)

	chatJobDispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_job_dispatch_failures_total",
			Help: "Jobs whose processing trigger could not be delivered.",
		},
		[]string{"mode"},
	)

	chatSubmitRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_submit_rate_limited_total",
			Help: "Job submissions rejected by the per-user rate limit.",
		},
	)
)

func IncChatJob(status string) {
	chatJobsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, seconds float64) {
	chatJobStageSeconds.WithLabelValues(norm(stage)).Observe(seconds)
}

func IncDispatchFailure(mode string) {
	chatJobDispatchFailures.WithLabelValues(norm(mode)).Inc()
}

func IncSubmitRateLimited() { chatSubmitRateLimited.Inc() }

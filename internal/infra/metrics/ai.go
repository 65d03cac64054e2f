package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsLatencyMs,
		aiKeyRotations,
		aiCredentialsExhausted,
		aiPlanParseFailures,
	)
}

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000, 64000},
		},
		[]string{"kind", "model", "success"}, // kind: plan|chat|questions|count
	)

	aiKeyRotations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_key_rotations_total",
			Help: "Times a quota error moved a call on to the next API key.",
		},
	)

	aiCredentialsExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_credentials_exhausted_total",
			Help: "Calls that failed because every API key hit its quota.",
		},
	)

	aiPlanParseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_plan_parse_failures_total",
			Help: "Planner outputs that could not be parsed and fell back to an empty plan.",
		},
	)
)

func ObserveAICall(kind, model string, latencyMs int64, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(kind), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncKeyRotation()          { aiKeyRotations.Inc() }
func IncCredentialsExhausted() { aiCredentialsExhausted.Inc() }
func IncPlanParseFailure()     { aiPlanParseFailures.Inc() }

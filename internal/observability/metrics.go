package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_route_decisions_total",
		Help: "Routing decisions by response type and escalation reason.",
	}, []string{"response_type", "reason"})

	routeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supportbot_route_duration_seconds",
		Help:    "Time spent deciding a route, including model calls.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	})

	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_llm_calls_total",
		Help: "Completion calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supportbot_llm_call_duration_seconds",
		Help:    "Completion call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	escalationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_escalations_created_total",
		Help: "Escalation tickets created by priority.",
	}, []string{"priority"})

	eventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportbot_event_publish_failures_total",
		Help: "Escalation events that could not be published.",
	}, []string{"driver"})
)

func RecordRoute(responseType, reason string, d time.Duration) {
	routeDecisions.WithLabelValues(responseType, reason).Inc()
	routeLatency.Observe(d.Seconds())
}

func RecordLLMCall(operation string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmCalls.WithLabelValues(operation, outcome).Inc()
	llmLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordEscalation(priority string) {
	escalationsCreated.WithLabelValues(priority).Inc()
}

func RecordPublishFailure(driver string) {
	eventPublishFailures.WithLabelValues(driver).Inc()
}

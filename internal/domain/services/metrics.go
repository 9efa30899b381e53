package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceid_access_decisions_total",
		Help: "Door event decisions by outcome and role",
	}, []string{"decision", "role"})

	barrierFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceid_barrier_failures_total",
		Help: "Open-door commands that did not open the barrier",
	}, []string{"mac"})

	provisionPushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceid_provision_push_total",
		Help: "Provisioning push results by kind and result",
	}, []string{"kind", "result"})

	// WebhookDuration tracks the device-facing hot path latency
	WebhookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "faceid_webhook_duration_seconds",
		Help:    "Door event webhook processing time",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveDecision counts one terminal decision
func ObserveDecision(d Decision, role string) {
	if role == "" {
		role = "unknown"
	}
	decisionTotal.WithLabelValues(string(d), role).Inc()
}

// ObserveBarrierFailure counts one failed open command
func ObserveBarrierFailure(mac string) {
	barrierFailureTotal.WithLabelValues(mac).Inc()
}

// ObservePush counts one provisioning push attempt result.
// kind is "person" or "image", result is "ok" or "fail".
func ObservePush(kind, result string) {
	provisionPushTotal.WithLabelValues(kind, result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds the simulator's Prometheus collectors.
type GatewayMetrics struct {
	TransactionsCreatedTotal   *prometheus.CounterVec
	TransactionsCompletedTotal *prometheus.CounterVec
	WebhookAttemptsTotal       *prometheus.CounterVec
	WebhookDeliveryDuration    *prometheus.HistogramVec
}

// NewGatewayMetrics registers the collectors on the default registry.
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		TransactionsCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_transactions_created_total",
				Help: "Number of simulated payments accepted",
			},
			[]string{"network", "currency"},
		),
		TransactionsCompletedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_transactions_completed_total",
				Help: "Number of simulated payments that reached a terminal status",
			},
			[]string{"status"},
		),
		WebhookAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_webhook_attempts_total",
				Help: "Webhook delivery attempts by result",
			},
			[]string{"result"},
		),
		WebhookDeliveryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_webhook_delivery_duration_seconds",
				Help:    "Wall time of a single webhook POST",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"result"},
		),
	}
}

// RecordTransactionCreated counts an accepted payment. Nil receivers are
// no-ops so components can run without metrics wired, as in tests.
func (m *GatewayMetrics) RecordTransactionCreated(network, currency string) {
	if m == nil {
		return
	}
	m.TransactionsCreatedTotal.WithLabelValues(network, currency).Inc()
}

// RecordTransactionCompleted counts a terminal transition.
func (m *GatewayMetrics) RecordTransactionCompleted(status string) {
	if m == nil {
		return
	}
	m.TransactionsCompletedTotal.WithLabelValues(status).Inc()
}

// RecordWebhookAttempt counts one delivery attempt and observes its
// duration.
func (m *GatewayMetrics) RecordWebhookAttempt(confirmed bool, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "failed"
	if confirmed {
		result = "confirmed"
	}
	m.WebhookAttemptsTotal.WithLabelValues(result).Inc()
	m.WebhookDeliveryDuration.WithLabelValues(result).Observe(durationSeconds)
}

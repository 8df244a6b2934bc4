package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total orders created",
	}, []string{
		"payment_method", // pix, boleto_short, boleto_long, card
	})

	orderCodeConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_code_conflicts_total",
		Help: "Order code collisions that forced a regeneration",
	})

	statusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions written to the status log",
	}, []string{
		"from",
		"to",
		"trigger", // poll, webhook, charge, admin, refund
	})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment observations fed to the reconciliation engine",
	}, []string{
		"source",  // poll, webhook, charge
		"outcome", // applied, no_change, skipped, not_found
		"reason",
	})

	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_requests_total",
		Help: "Calls made to payment providers",
	}, []string{
		"provider",
		"operation", // create_charge, query_payment, refund, webhook_resolve
		"result",    // success, error, timeout, circuit_open
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of payment provider calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{
		"provider",
		"operation",
	})

	gatewayCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "payment_gateway_circuit_state",
		Help: "Circuit breaker state per provider (0=closed, 1=open, 2=half-open)",
	}, []string{
		"provider",
	})

	webhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Provider notifications received",
	}, []string{
		"provider",
		"result", // processed, decode_error, failed
	})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refunds_total",
		Help: "Refund attempts",
	}, []string{
		"provider",
		"result",
	})

	outboxPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events relayed to the broker",
	}, []string{
		"result",
	})

	dbPoolConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "db_pool_connections",
		Help: "Database pool connections by state",
	}, []string{
		"state", // acquired, idle, max
	})
)

// RecordOrderCreated records a newly created order
func RecordOrderCreated(paymentMethod string) {
	ordersCreatedTotal.WithLabelValues(paymentMethod).Inc()
}

// RecordCodeConflict records an order code collision
func RecordCodeConflict() {
	orderCodeConflictsTotal.Inc()
}

// RecordStatusTransition records one status log entry
func RecordStatusTransition(from, to, trigger string) {
	if from == "" {
		from = "none"
	}
	statusTransitionsTotal.WithLabelValues(from, to, trigger).Inc()
}

// RecordReconciliation records the outcome of a reconciliation
func RecordReconciliation(source, outcome, reason string) {
	reconciliationsTotal.WithLabelValues(source, outcome, reason).Inc()
}

// RecordGatewayRequest records a provider call and its latency
func RecordGatewayRequest(provider, operation, result string, duration time.Duration) {
	gatewayRequestsTotal.WithLabelValues(provider, operation, result).Inc()
	gatewayRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordCircuitState records a circuit breaker state change
func RecordCircuitState(provider string, state int) {
	gatewayCircuitState.WithLabelValues(provider).Set(float64(state))
}

// RecordWebhook records a received provider notification
func RecordWebhook(provider, result string) {
	webhooksReceivedTotal.WithLabelValues(provider, result).Inc()
}

// RecordRefund records a refund attempt
func RecordRefund(provider, result string) {
	refundsTotal.WithLabelValues(provider, result).Inc()
}

// RecordOutboxPublished records a relayed outbox event
func RecordOutboxPublished(result string) {
	outboxPublishedTotal.WithLabelValues(result).Inc()
}

// RecordPoolStats publishes a snapshot of the database pool
func RecordPoolStats(acquired, idle, max int32) {
	dbPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
	dbPoolConnections.WithLabelValues("idle").Set(float64(idle))
	dbPoolConnections.WithLabelValues("max").Set(float64(max))
}

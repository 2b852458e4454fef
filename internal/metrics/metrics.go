// Package metrics provides Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebhooksReceived counts inbound webhook calls by outcome of the
	// synchronous request path (accepted, unauthorized, unknown_scope).
	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixgw",
			Name:      "webhooks_received_total",
			Help:      "Total inbound webhook calls by request-path outcome.",
		},
		[]string{"outcome"},
	)

	// WebhooksUnauthorized counts credential failures on the webhook path.
	WebhooksUnauthorized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pixgw",
		Name:      "webhooks_unauthorized_total",
		Help:      "Total webhook calls rejected for bad credentials.",
	})

	// WebhooksProcessed counts notifications that completed detached processing.
	WebhooksProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pixgw",
		Name:      "webhooks_processed_total",
		Help:      "Total notifications that completed detached processing.",
	})

	// WebhooksReplayed counts duplicate deliveries observed by the dedup cache.
	WebhooksReplayed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pixgw",
		Name:      "webhooks_replayed_total",
		Help:      "Total duplicate webhook deliveries observed.",
	})

	// InvoiceTransitions counts applied lifecycle transitions by new status.
	InvoiceTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixgw",
			Name:      "invoice_transitions_total",
			Help:      "Total applied invoice lifecycle transitions by new status.",
		},
		[]string{"status"},
	)

	// DispatcherQueueDepth tracks the current detached-task queue depth.
	DispatcherQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pixgw",
		Name:      "dispatcher_queue_depth",
		Help:      "Current number of queued webhook processing tasks.",
	})

	// DispatcherDropped counts tasks dropped because the queue was full.
	DispatcherDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pixgw",
		Name:      "dispatcher_dropped_total",
		Help:      "Total processing tasks dropped due to queue saturation.",
	})
)

func init() {
	prometheus.MustRegister(
		WebhooksReceived,
		WebhooksUnauthorized,
		WebhooksProcessed,
		WebhooksReplayed,
		InvoiceTransitions,
		DispatcherQueueDepth,
		DispatcherDropped,
	)
}

// Handler returns the Prometheus metrics handler for the /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

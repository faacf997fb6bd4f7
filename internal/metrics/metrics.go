package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	CheckoutSessionsCreated prometheus.Counter
	OrdersMaterialized      prometheus.Counter
	DuplicateCompletions    prometheus.Counter
	WebhookFailures         prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutSessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_sessions_created_total",
			Help:      "Checkout sessions successfully created at the gateway.",
		}),
		OrdersMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_materialized_total",
			Help:      "Orders durably created from completed checkout sessions.",
		}),
		DuplicateCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "duplicate_completions_total",
			Help:      "Completion events skipped by the idempotency guard.",
		}),
		WebhookFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "webhook_failures_total",
			Help:      "Webhook deliveries rejected or failed during processing.",
		}),
	}

	reg.MustRegister(
		m.CheckoutSessionsCreated,
		m.OrdersMaterialized,
		m.DuplicateCompletions,
		m.WebhookFailures,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

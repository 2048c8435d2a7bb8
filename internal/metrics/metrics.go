package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPRequests counts handled requests by route pattern and status code
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "soulknot_http_requests_total",
		Help: "Total number of HTTP requests handled",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration records request latency by route pattern
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "soulknot_http_request_duration_seconds",
		Help:    "Latency in seconds of HTTP requests",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// PremiumApprovals counts premium approvals by outcome
var PremiumApprovals = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "soulknot_premium_approvals_total",
		Help: "Premium membership approvals by outcome",
	},
	[]string{"outcome"},
)

// PaymentIntents counts payment intent creations by outcome
var PaymentIntents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "soulknot_payment_intents_total",
		Help: "Payment intents requested from the processor by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, PremiumApprovals, PaymentIntents)
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cte_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cte_store_op_seconds",
			Help:    "Duration of backing store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	ListingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cte_listings_created_total",
			Help: "Total listings created",
		},
	)

	OffersSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cte_offers_submitted_total",
			Help: "Total offers recorded",
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cte_notification_failures_total",
			Help: "Total seller notifications that could not be handed off or delivered",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cte_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)

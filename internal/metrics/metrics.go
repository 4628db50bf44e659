// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whisk",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "whisk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// InvoicesSaved counts invoice writes by action: created, updated, deleted.
	InvoicesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whisk",
		Name:      "invoices_saved_total",
		Help:      "Invoice writes by action.",
	}, []string{"action"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "whisk",
		Name:      "cache_lookups_total",
		Help:      "Redis cache lookups by result.",
	}, []string{"result"})
)

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts inbound proxy requests by action and HTTP status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistgate_requests_total",
			Help: "Total number of inbound proxy requests",
		},
		[]string{"action", "status"},
	)

	// UpstreamRetries counts dispatcher retries triggered by rate limiting.
	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistgate_upstream_retries_total",
			Help: "Total number of upstream retries after HTTP 429",
		},
	)

	// HostCacheLookups counts host cache lookups by result (hit or miss).
	HostCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistgate_host_cache_lookups_total",
			Help: "Total number of host cache lookups",
		},
		[]string{"result"},
	)

	// UpstreamLatency observes upstream call duration in seconds.
	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistgate_upstream_latency_seconds",
			Help:    "Latency of upstream platform calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// ComparisonCount counts repository pair comparisons by outcome
	ComparisonCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clonescope_comparisons_total",
			Help: "Total number of repository comparisons",
		},
		[]string{"status"},
	)

	// ComparisonDuration measures the analysis and persistence time of one comparison
	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clonescope_comparison_duration_seconds",
			Help:    "Repository comparison duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	// SweepCount counts finished group sweeps by final state
	SweepCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clonescope_sweeps_total",
			Help: "Total number of finished group sweeps",
		},
		[]string{"state"},
	)

	// StreamMessages counts consumed group request messages by outcome
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clonescope_stream_messages_total",
			Help: "Total number of consumed stream messages",
		},
		[]string{"outcome"},
	)

	// BlobCacheLookups counts blob cache lookups by result
	BlobCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clonescope_blob_cache_lookups_total",
			Help: "Total number of blob cache lookups",
		},
		[]string{"result"},
	)
)

// InitPrometheus initializes Prometheus metrics
func InitPrometheus() {
	prometheus.MustRegister(RequestCount)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ComparisonCount)
	prometheus.MustRegister(ComparisonDuration)
	prometheus.MustRegister(SweepCount)
	prometheus.MustRegister(StreamMessages)
	prometheus.MustRegister(BlobCacheLookups)
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

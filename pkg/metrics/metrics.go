package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Custom histogram buckets optimized for API response times ranging from
	// milliseconds to 30+ seconds
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// Backend API client metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	APIRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_request_total",
			Help: "Total number of backend API requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Session metrics
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultlaw_session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"to_state", "reason"},
	)

	// Booking metrics
	BookingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultlaw_bookings_submitted_total",
			Help: "Total number of booking submissions",
		},
		[]string{"status"},
	)

	BookingsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultlaw_bookings_cancelled_total",
			Help: "Total number of booking cancellations",
		},
		[]string{"status"},
	)

	StaleLoadsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consultlaw_stale_loads_discarded_total",
			Help: "Total number of superseded booking-list responses discarded",
		},
	)

	// Build info
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "consultlaw_client_build_info",
			Help: "Build information for the client",
		},
		[]string{"service_name", "go_version"},
	)
)

// Init sets static metric values
func Init(serviceName string) {
	BuildInfo.WithLabelValues(serviceName, runtime.Version()).Set(1)
}

// MeasureDuration returns elapsed seconds since start
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdapterRequests counts outbound calls per adapter and result (ok, error).
	AdapterRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesmith_adapter_requests_total",
		Help: "Outbound routing, elevation and geocoding requests.",
	}, []string{"adapter", "result"})

	AdapterLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routesmith_adapter_request_seconds",
		Help:    "Latency of outbound adapter requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"adapter"})

	// FallbackSegments counts segments drawn as straight lines because routing failed.
	FallbackSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routesmith_fallback_segments_total",
		Help: "Segments built as straight lines after a routing failure.",
	})

	GeocodeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routesmith_geocode_cache_total",
		Help: "Place-name cache lookups by outcome.",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routesmith_active_sessions",
		Help: "Planner sessions currently held in memory.",
	})
)

// Observe records one adapter call.
func Observe(adapter, result string, seconds float64) {
	AdapterRequests.WithLabelValues(adapter, result).Inc()
	AdapterLatency.WithLabelValues(adapter).Observe(seconds)
}

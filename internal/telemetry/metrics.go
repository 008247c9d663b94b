// Package telemetry holds the Prometheus metrics and OpenTelemetry tracing
// for the rotation service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RotationTicksTotal counts rotation cycles started.
	RotationTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "squonk_rotation_ticks_total",
		Help: "Total number of rotation cycles started.",
	})

	// RotationErrorsTotal counts per-tenant rotation failures.
	RotationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "squonk_rotation_errors_total",
		Help: "Total number of per-tenant rotation delivery failures.",
	})

	// RotationTenantsActive tracks the size of the active tenant set.
	RotationTenantsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "squonk_rotation_tenants_active",
		Help: "Number of tenants currently participating in rotation.",
	})

	// DeliveriesTotal counts successful track deliveries by source.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squonk_deliveries_total",
		Help: "Total number of track deliveries.",
	}, []string{"source"})

	// DeliveryDuration observes time spent delivering a single track.
	DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "squonk_delivery_duration_seconds",
		Help:    "Time spent selecting and delivering a track.",
		Buckets: prometheus.DefBuckets,
	})

	// TracksUploadedTotal counts tracks added to tenant libraries.
	TracksUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "squonk_tracks_uploaded_total",
		Help: "Total number of tracks uploaded.",
	})

	// APIRequestsTotal counts HTTP API requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "squonk_api_requests_total",
		Help: "Total number of HTTP API requests.",
	}, []string{"method", "path", "status"})

	// APIRequestDuration observes HTTP API request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "squonk_api_request_duration_seconds",
		Help:    "HTTP API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// APIActiveConnections tracks in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "squonk_api_active_connections",
		Help: "Number of in-flight HTTP API requests.",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

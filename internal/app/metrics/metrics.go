// Package metrics exposes Prometheus collectors for the vendor service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drnkly/vendor-service/internal/app/domain/order"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vendor_service",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendor_service",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vendor_service",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method"},
	)

	itemTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendor_service",
			Subsystem: "fulfillment",
			Name:      "item_transitions_total",
			Help:      "Total number of line item status transitions applied.",
		},
		[]string{"transition"},
	)

	verificationCodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vendor_service",
			Subsystem: "verification",
			Name:      "codes_total",
			Help:      "Verification codes issued and verification outcomes.",
		},
		[]string{"event"},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, itemTransitions, verificationCodes)
}

// ObserveItemTransition counts an applied fulfillment transition.
func ObserveItemTransition(status order.FulfillmentStatus) {
	itemTransitions.WithLabelValues(string(status)).Inc()
}

// ObserveHandover counts an applied handover transition.
func ObserveHandover() {
	itemTransitions.WithLabelValues("handedOver").Inc()
}

// ObserveVerification counts a verification event: issued, verified or
// rejected.
func ObserveVerification(event string) {
	verificationCodes.WithLabelValues(event).Inc()
}

// Handler serves the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request counts and latencies.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

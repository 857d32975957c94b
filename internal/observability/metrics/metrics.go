package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_auth_attempts_total",
		Help: "Count of authentication operations by action and result",
	}, []string{"action", "result"})

	checkoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	reservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_stock_reservation_operations_total",
		Help: "Count of stock reservation operations by op and result",
	}, []string{"op", "result"})

	sweepOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sweep_operations_total",
		Help: "Count of background sweep operations by task and result",
	}, []string{"task", "result"})

	openOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_open_orders",
		Help: "Number of orders in a non-terminal status",
	})

	orderEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_events_total",
		Help: "Count of order events published to the broker",
	}, []string{"event_type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth counts an authentication operation outcome.
func ObserveAuth(action, result string) {
	authAttempts.WithLabelValues(action, result).Inc()
}

// ObserveCheckout records the duration of a checkout attempt with a result label.
func ObserveCheckout(result string, duration time.Duration) {
	checkoutDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveReservation counts a stock reservation operation outcome.
func ObserveReservation(op, result string) {
	reservationOps.WithLabelValues(op, result).Inc()
}

// ObserveSweep increments the sweep counter for the given task and result.
func ObserveSweep(task, result string) {
	sweepOperations.WithLabelValues(task, result).Inc()
}

// ObserveOrderEvent counts a published (or failed) order event.
func ObserveOrderEvent(eventType, result string) {
	orderEvents.WithLabelValues(eventType, result).Inc()
}

// IncrementOpenOrders increments the open order gauge.
func IncrementOpenOrders() {
	openOrders.Inc()
}

// DecrementOpenOrders decrements the open order gauge.
func DecrementOpenOrders() {
	openOrders.Dec()
}

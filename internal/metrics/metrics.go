// Package metrics collects and exposes Prometheus metrics for provider
// calls made by the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records one observation per handled HTTP request and per
// outbound provider call. It satisfies the recorder interfaces the server
// middleware and the provider client accept.
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signgate_http_requests_total",
			Help: "Handled HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signgate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signgate_upstream_calls_total",
			Help: "Provider API calls by operation and HTTP status.",
		}, []string{"op", "status"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signgate_upstream_errors_total",
			Help: "Provider API calls that failed at the transport level.",
		}, []string{"op"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signgate_upstream_latency_seconds",
			Help:    "Provider API call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.upstreamCalls,
		c.upstreamErrors,
		c.upstreamLatency,
	)

	return c
}

// RecordRequest records one handled HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstream records one provider call. A zero status means the call
// never produced an HTTP response.
func (c *Collector) RecordUpstream(op string, status int, duration time.Duration) {
	if status == 0 {
		c.upstreamErrors.WithLabelValues(op).Inc()
	} else {
		c.upstreamCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
	}
	c.upstreamLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

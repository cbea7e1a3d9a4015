// Package metrics holds the Prometheus collectors for the roster service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	storeOps     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coolmember",
			Name:      "store_operations_total",
			Help:      "Member store operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coolmember",
			Name:      "store_fallbacks_total",
			Help:      "Remote failures that were retried against the local store.",
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coolmember",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.storeOps,
		m.fallbacks,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStoreOp counts one store call.
func (m *Metrics) ObserveStoreOp(backend, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(backend, operation, result).Inc()
}

// ObserveFallback counts one remote-to-local transition.
func (m *Metrics) ObserveFallback(operation string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(operation).Inc()
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

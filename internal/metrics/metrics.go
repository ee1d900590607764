// Package metrics exposes Prometheus instrumentation for tool invocations
// and remote daemon calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry so the /metrics
// endpoint serves only our own series.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	remoteCalls  *prometheus.CounterVec
	instanceUp   *prometheus.GaugeVec
}

// New builds and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syncmcp",
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})

	m.toolDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "syncmcp",
		Name:      "tool_duration_seconds",
		Help:      "Tool invocation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	m.remoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syncmcp",
		Name:      "remote_calls_total",
		Help:      "REST calls to daemon instances by instance, method and status class.",
	}, []string{"instance", "method", "status"})

	m.instanceUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "syncmcp",
		Name:      "instance_up",
		Help:      "Whether the last availability probe of an instance succeeded.",
	}, []string{"instance"})

	m.registry.MustRegister(m.toolCalls, m.toolDuration, m.remoteCalls, m.instanceUp)
	return m
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool string, isError bool, elapsed time.Duration) {
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRemote records one REST call to a daemon instance. The status label
// is a class like "2xx", "4xx" or "error" for transport failures.
func (m *Metrics) ObserveRemote(instance, method, status string) {
	m.remoteCalls.WithLabelValues(instance, method, status).Inc()
}

// SetInstanceUp records the latest probe result for an instance.
func (m *Metrics) SetInstanceUp(instance string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	m.instanceUp.WithLabelValues(instance).Set(v)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

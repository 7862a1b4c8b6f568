// Package metrics holds the Prometheus collectors for item lifecycle events
// and API outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "darila"

// Metrics is the set of collectors the server updates. Each value owns its
// registry so tests can build as many as they need.
type Metrics struct {
	Transitions   *prometheus.CounterVec
	StaleWrites   prometheus.Counter
	AuditFailures prometheus.Counter
	Rejections    *prometheus.CounterVec
	Requests      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry. The registry also carries
// the Go runtime and process collectors when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_transitions_total",
			Help:      "Applied item status transitions.",
		}, []string{"from", "to"}),
		StaleWrites: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_stale_writes_total",
			Help:      "Compare-and-set writes that lost to a concurrent change.",
		}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit entries that could not be written.",
		}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_rejections_total",
			Help:      "API requests rejected, by reason code.",
		}, []string{"code"}),
		Requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		registry: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

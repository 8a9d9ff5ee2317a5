package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	throttled prometheus.Counter
	rebuilds  prometheus.Counter
}

// NewMetrics creates and registers the service counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "networksession_decisions_total",
				Help: "Authentication decisions by authenticator and decision",
			},
			[]string{"authenticator", "decision"},
		),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "networksession_throttled_total",
			Help: "Requests refused because the client exhausted its failure budget",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "networksession_engine_rebuilds_total",
			Help: "Times the authenticator chain was rebuilt from changed configuration",
		}),
	}

	m.registry.MustRegister(m.decisions, m.throttled, m.rebuilds)
	return m
}

// RecordDecision counts one authentication decision.
func (m *Metrics) RecordDecision(authenticator auth.Type, decision string) {
	m.decisions.WithLabelValues(string(authenticator), decision).Inc()
}

// RecordThrottled counts one throttled request.
func (m *Metrics) RecordThrottled() {
	m.throttled.Inc()
}

// RecordRebuild counts one chain rebuild.
func (m *Metrics) RecordRebuild() {
	m.rebuilds.Inc()
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

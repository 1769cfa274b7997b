// Package metrics exposes Prometheus counters for entry mutations and
// split fan-out.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the server's operational counters.
type Metrics struct {
	registry *prometheus.Registry

	EntriesCreated  prometheus.Counter
	EntriesUpdated  prometheus.Counter
	EntriesDeleted  prometheus.Counter
	SharesFannedOut prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New builds a Metrics set on its own registry, so tests can create
// independent instances without duplicate registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EntriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "drinklog_entries_created_total",
			Help: "Number of calendar entries created, mirrors included.",
		}),
		EntriesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "drinklog_entries_updated_total",
			Help: "Number of calendar entry updates.",
		}),
		EntriesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "drinklog_entries_deleted_total",
			Help: "Number of calendar entries deleted, cascades included.",
		}),
		SharesFannedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "drinklog_shares_fanned_out_total",
			Help: "Number of mirror entries written for group expenses.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drinklog_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drinklog_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the service exposes.
type Metrics struct {
	registry *prometheus.Registry

	QueryDuration   *prometheus.HistogramVec
	QueryErrors     *prometheus.CounterVec
	ViewRefreshes   *prometheus.CounterVec
	StaleDiscards   *prometheus.CounterVec
	Predictions     *prometheus.CounterVec
	ModelLoadBytes  prometheus.Gauge
	DictCacheHits   prometheus.Counter
	DictCacheMisses prometheus.Counter
}

// New builds a Metrics set on a dedicated registry so tests never collide on
// the global default.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collisions_query_duration_seconds",
			Help:    "Latency of analytical queries against the embedded engine.",
			Buckets: prometheus.DefBuckets,
		}, []string{"view"}),
		QueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collisions_query_errors_total",
			Help: "Analytical query failures by view and error kind.",
		}, []string{"view", "kind"}),
		ViewRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collisions_view_refreshes_total",
			Help: "Filter-triggered view recomputations.",
		}, []string{"view"}),
		StaleDiscards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collisions_stale_results_discarded_total",
			Help: "Query results dropped because a newer filter generation superseded them.",
		}, []string{"view"}),
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collisions_predictions_total",
			Help: "Model predictions by model name and outcome.",
		}, []string{"model", "outcome"}),
		ModelLoadBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collisions_model_download_bytes",
			Help: "Bytes received for the most recent model artifact download.",
		}),
		DictCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "collisions_dictionary_cache_hits_total",
			Help: "Label dictionary lookups served from cache.",
		}),
		DictCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "collisions_dictionary_cache_misses_total",
			Help: "Label dictionary lookups that required a reload.",
		}),
	}
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

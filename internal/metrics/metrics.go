// Package metrics exposes Prometheus instrumentation for the forecast
// service: cache hit/miss counters, fetch durations and fetch errors by
// kind. All metrics are served on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard backend.
type Metrics struct {
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	FetchDurationSeconds *prometheus.HistogramVec
	FetchErrorsTotal     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridpulse_forecast_cache_hits_total",
			Help: "Forecast cache lookups served from cache",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridpulse_forecast_cache_misses_total",
			Help: "Forecast cache lookups that fell through to the backend",
		}),
		FetchDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridpulse_forecast_fetch_seconds",
			Help:    "Time spent fetching forecast data from the backend API",
			Buckets: prometheus.DefBuckets,
		}, []string{"product", "operation"}),
		FetchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridpulse_forecast_fetch_errors_total",
			Help: "Forecast fetch failures by error kind",
		}, []string{"kind"}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geosight_viewer"

// Metrics holds the Prometheus counters, histograms, and gauges for the viewer.
type Metrics struct {
	// Seismic API metrics.
	APIRequests        *prometheus.CounterVec   // labels: endpoint={list_events,event_detail,list_clusters}, outcome={success,network_error,decode_error,not_found}
	APIRequestDuration *prometheus.HistogramVec // labels: endpoint

	// Detail cache metrics.
	DetailCache          *prometheus.CounterVec // labels: result={hit,miss,inflight}
	DetailFetches        *prometheus.CounterVec // labels: outcome={success,error,stale}
	DetailFetchDuration  prometheus.Histogram
	DetailCacheEvictions prometheus.Counter

	// Session metrics.
	ActiveSessions prometheus.Gauge
	ModeSwitches   *prometheus.CounterVec // labels: mode={earthquakes,hotspots}
	ListFetches    *prometheus.CounterVec // labels: mode, outcome={success,error,stale}
	OpenPopups     prometheus.Gauge
	UpdatesDropped prometheus.Counter

	// Activity stream metrics.
	ActivityPublished *prometheus.CounterVec // labels: outcome={success,error}
	ActivityEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all viewer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.APIRequests,
		m.APIRequestDuration,
		m.DetailCache,
		m.DetailFetches,
		m.DetailFetchDuration,
		m.DetailCacheEvictions,
		m.ActiveSessions,
		m.ModeSwitches,
		m.ListFetches,
		m.OpenPopups,
		m.UpdatesDropped,
		m.ActivityPublished,
		m.ActivityEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Seismic API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Seismic API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		DetailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_total",
			Help:      "Detail cache lookups on popup open by result.",
		}, []string{"result"}),
		DetailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_fetches_total",
			Help:      "Completed detail fetches by outcome.",
		}, []string{"outcome"}),
		DetailFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detail_fetch_duration_seconds",
			Help:      "Time from popup open to detail fetch completion.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DetailCacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_cache_evictions_total",
			Help:      "Detail records evicted from session caches.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Viewer sessions currently held in memory.",
		}),
		ModeSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_switches_total",
			Help:      "Map mounts by target mode.",
		}, []string{"mode"}),
		ListFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_fetches_total",
			Help:      "Summary list fetches by mode and outcome.",
		}, []string{"mode", "outcome"}),
		OpenPopups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_popups",
			Help:      "Popups currently open across all sessions.",
		}),
		UpdatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_dropped_total",
			Help:      "Marker updates dropped because a subscriber was not keeping up.",
		}),
		ActivityPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_published_total",
			Help:      "Activity events handed to Kafka by outcome.",
		}, []string{"outcome"}),
		ActivityEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activity_enabled",
			Help:      "1 when the activity stream is enabled, 0 otherwise.",
		}),
	}
}

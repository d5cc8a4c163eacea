package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weatherpulse"

// Metrics holds the Prometheus counters, histograms, and gauges for collection runs.
type Metrics struct {
	FetchRequests    *prometheus.CounterVec // labels: source={current,historical,geocode}, outcome
	RecordsCollected *prometheus.CounterVec // labels: kind={current,historical}
	GeocodeCache     *prometheus.CounterVec // labels: result={hit,miss}
	Runs             *prometheus.CounterVec // labels: outcome={success,error}

	RunDuration       prometheus.Histogram
	MasterRows        prometheus.Gauge
	AnomaliesDetected prometheus.Gauge
	ChartsRendered    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.RecordsCollected,
		m.GeocodeCache,
		m.Runs,
		m.RunDuration,
		m.MasterRows,
		m.AnomaliesDetected,
		m.ChartsRendered,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream weather requests by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_collected_total",
			Help:      "Records fetched from upstream sources by kind.",
		}, []string{"kind"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Master dataset update runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete collect-merge-save run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		MasterRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "master_rows",
			Help:      "Rows in the master table after the last run.",
		}),
		AnomaliesDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomalies_detected",
			Help:      "Temperature anomalies found in the master table after the last run.",
		}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "PNG charts written by the reporter.",
		}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// sighting data pipeline.
type Metrics struct {
	RowsRead     prometheus.Counter
	RowsAccepted prometheus.Counter
	RowsRejected *prometheus.CounterVec // label: reason={country,shape,timestamp}

	// Canonical set metrics.
	DatasetSize    prometheus.Gauge
	BoostedSampled prometheus.Gauge
	LoadDuration   prometheus.Histogram

	// Working view metrics.
	WorkingViewSize   prometheus.Gauge
	RecomputeDuration prometheus.Histogram
	ViewNotifications prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sighting_pipeline",
			Name:      "rows_read_total",
			Help:      "Total raw rows read from the source.",
		}),
		RowsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sighting_pipeline",
			Name:      "rows_accepted_total",
			Help:      "Total rows that passed normalization.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sighting_pipeline",
			Name:      "rows_rejected_total",
			Help:      "Rows dropped during normalization, by reason.",
		}, []string{"reason"}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sighting_pipeline",
			Name:      "dataset_size",
			Help:      "Records in the canonical set after sampling.",
		}),
		BoostedSampled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sighting_pipeline",
			Name:      "boosted_sampled",
			Help:      "Boosted-category records forced into the canonical set.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sighting_pipeline",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete read-normalize-sample-commit cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WorkingViewSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sighting_pipeline",
			Name:      "working_view_size",
			Help:      "Records in the current filtered, sorted view.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sighting_pipeline",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a working view rebuild.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ViewNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sighting_pipeline",
			Name:      "view_notifications_total",
			Help:      "Times the view-changed listener was invoked.",
		}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsAccepted,
		m.RowsRejected,
		m.DatasetSize,
		m.BoostedSampled,
		m.LoadDuration,
		m.WorkingViewSize,
		m.RecomputeDuration,
		m.ViewNotifications,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sighting_pipeline", Name: "rows_read_total"}),
		RowsAccepted:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sighting_pipeline", Name: "rows_accepted_total"}),
		RowsRejected:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sighting_pipeline", Name: "rows_rejected_total"}, []string{"reason"}),
		DatasetSize:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sighting_pipeline", Name: "dataset_size"}),
		BoostedSampled:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sighting_pipeline", Name: "boosted_sampled"}),
		LoadDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sighting_pipeline", Name: "load_duration_seconds"}),
		WorkingViewSize:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sighting_pipeline", Name: "working_view_size"}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sighting_pipeline", Name: "recompute_duration_seconds"}),
		ViewNotifications: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sighting_pipeline", Name: "view_notifications_total"}),
	}
}

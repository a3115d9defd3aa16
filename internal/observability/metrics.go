package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// sanitization pipeline and the spool watcher.
type Metrics struct {
	RowsRead           prometheus.Counter
	RowsSkipped        prometheus.Counter
	InvalidFixes       *prometheus.CounterVec // label: gate={satellite,deviation,rate,duplicate}
	PointsInterpolated prometheus.Counter
	PointsPublished    prometheus.Counter

	TracksSanitized prometheus.Counter
	TracksFailed    prometheus.Counter

	SanitizeDuration prometheus.Histogram
	WatcherRunning   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "rows_read_total",
			Help:      "Total telemetry rows read from log files.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "rows_skipped_total",
			Help:      "Total rows skipped for missing or non-monotonic timestamps.",
		}),
		InvalidFixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "invalid_fixes_total",
			Help:      "GPS fixes rejected by the outlier detector, by gate.",
		}, []string{"gate"}),
		PointsInterpolated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "points_interpolated_total",
			Help:      "Rejected fixes repaired by interpolation.",
		}),
		PointsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "points_published_total",
			Help:      "Sanitized points published to the Kafka sink.",
		}),
		TracksSanitized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "tracks_sanitized_total",
			Help:      "Tracks sanitized and written successfully.",
		}),
		TracksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telem2kml",
			Name:      "tracks_failed_total",
			Help:      "Tracks abandoned as irrecoverable or failed during output.",
		}),
		SanitizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telem2kml",
			Name:      "sanitize_duration_seconds",
			Help:      "Duration of a complete track sanitization.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		WatcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telem2kml",
			Name:      "watcher_running",
			Help:      "1 when the spool watcher is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsSkipped,
		m.InvalidFixes,
		m.PointsInterpolated,
		m.PointsPublished,
		m.TracksSanitized,
		m.TracksFailed,
		m.SanitizeDuration,
		m.WatcherRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "rows_read_total"}),
		RowsSkipped:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "rows_skipped_total"}),
		InvalidFixes:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "telem2kml", Name: "invalid_fixes_total"}, []string{"gate"}),
		PointsInterpolated: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "points_interpolated_total"}),
		PointsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "points_published_total"}),
		TracksSanitized:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "tracks_sanitized_total"}),
		TracksFailed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "telem2kml", Name: "tracks_failed_total"}),
		SanitizeDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "telem2kml", Name: "sanitize_duration_seconds"}),
		WatcherRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "telem2kml", Name: "watcher_running"}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_radar"

// Metrics holds the Prometheus counters, histograms, and gauges for the render pipeline.
type Metrics struct {
	FramesRendered  prometheus.Counter
	RenderFailures  *prometheus.CounterVec // labels: kind={fetch,decode,geometry,unsupported_geometry,internal}
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	RenderDuration *prometheus.HistogramVec // labels: stage={basemap,radar,alerts,composite,quantize,display}

	// Upstream fetch metrics.
	FetchErrors     *prometheus.CounterVec // labels: source
	BasemapCache    *prometheus.CounterVec // labels: result={hit,miss}
	AlertsRendered  prometheus.Counter
	FramesPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FramesRendered,
		m.RenderFailures,
		m.PipelineRunning,
		m.LastSuccess,
		m.RenderDuration,
		m.FetchErrors,
		m.BasemapCache,
		m.AlertsRendered,
		m.FramesPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Total frames rendered and handed to the display.",
		}),
		RenderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Failed render runs by error kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last frame shown on the display.",
		}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each render stage.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Upstream fetch failures by source.",
		}, []string{"source"}),
		BasemapCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "basemap_cache_total",
			Help:      "Basemap cache lookups by result.",
		}, []string{"result"}),
		AlertsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_rendered_total",
			Help:      "Alert polygons rasterized onto frames.",
		}),
		FramesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_published_total",
			Help:      "Frames written to the Kafka frame topic.",
		}),
	}
}

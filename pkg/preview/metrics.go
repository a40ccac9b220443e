package preview

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks render outcomes on a private registry so that several
// servers (and tests) never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry
	renders  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	diagrams prometheus.Gauge
}

// NewMetrics registers the preview collectors plus the standard Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diagrams",
			Name:      "renders_total",
			Help:      "Render attempts by diagram and result.",
		}, []string{"diagram", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "diagrams",
			Name:      "render_duration_seconds",
			Help:      "Time spent in the layout engine.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"format"}),
		diagrams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diagrams",
			Name:      "artifacts",
			Help:      "Artifacts currently served.",
		}),
	}
	m.registry.MustRegister(
		m.renders,
		m.duration,
		m.diagrams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(diagram, format string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.renders.WithLabelValues(diagram, result).Inc()
	if err == nil {
		m.duration.WithLabelValues(format).Observe(d.Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iris-site/pkg/events"
)

// Content holds the article rendering and listing collectors.
type Content struct {
	registry *prometheus.Registry

	Renders       *prometheus.CounterVec
	RenderSeconds prometheus.Histogram
	ListSkipped   prometheus.Counter
	Inflight      prometheus.Gauge
}

func New() *Content {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Content{
		registry: reg,
		Renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iris_article_renders_total",
			Help: "Article renders by outcome",
		}, []string{"outcome"}),
		RenderSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "iris_article_render_seconds",
			Help:    "Time to resolve and render one article",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		ListSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_list_skipped_total",
			Help: "Documents left out of listings for malformed front matter",
		}),
		Inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "iris_inflight_renders",
			Help: "Article renders currently in progress",
		}),
	}
}

// Observe applies one content event to the collectors.
func (m *Content) Observe(e events.Event) {
	switch e.Kind {
	case events.RenderStarted:
		m.Inflight.Set(float64(e.Inflight))
	case events.RenderFinished:
		m.Inflight.Set(float64(e.Inflight))
		m.Renders.WithLabelValues(string(e.Outcome)).Inc()
		m.RenderSeconds.Observe(e.Duration.Seconds())
	case events.DocumentSkipped:
		m.ListSkipped.Inc()
	}
}

// Attach subscribes m to c and returns the unsubscribe function.
func (m *Content) Attach(c *events.Coordinator) func() {
	return c.Subscribe(m.Observe)
}

func (m *Content) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

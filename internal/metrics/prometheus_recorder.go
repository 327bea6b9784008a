package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder backed by a prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	buildsTotal   *prometheus.CounterVec
	buildDuration prometheus.Histogram
	examples      prometheus.Gauge
	pagesWritten  prometheus.Counter
	pagesPurged   prometheus.Counter
}

// NewPrometheusRecorder creates a recorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: reg,
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docgallery_builds_total",
			Help: "Number of gallery builds by outcome.",
		}, []string{"outcome"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docgallery_build_duration_seconds",
			Help:    "Duration of gallery builds.",
			Buckets: prometheus.DefBuckets,
		}),
		examples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docgallery_examples",
			Help: "Examples collected in the most recent build.",
		}),
		pagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docgallery_pages_written_total",
			Help: "Gallery pages written across builds.",
		}),
		pagesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docgallery_pages_purged_total",
			Help: "Stale gallery pages purged across builds.",
		}),
	}

	reg.MustRegister(r.buildsTotal, r.buildDuration, r.examples, r.pagesWritten, r.pagesPurged)
	return r
}

// Handler returns the /metrics HTTP handler for this recorder's registry.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) BuildStarted() {}

func (r *PrometheusRecorder) BuildCompleted(duration time.Duration, succeeded bool) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	r.buildsTotal.WithLabelValues(outcome).Inc()
	r.buildDuration.Observe(duration.Seconds())
}

func (r *PrometheusRecorder) ExamplesCollected(count int) {
	r.examples.Set(float64(count))
}

func (r *PrometheusRecorder) PagesGenerated(count int) {
	r.pagesWritten.Add(float64(count))
}

func (r *PrometheusRecorder) PagesPurged(count int) {
	r.pagesPurged.Add(float64(count))
}

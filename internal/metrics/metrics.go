// Package metrics exposes Prometheus metrics for summarization runs.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdigest"

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	ItemsTotal     *prometheus.CounterVec
	FallbacksTotal prometheus.Counter
	RunDuration    prometheus.Histogram
}

// New registers the run metrics, plus Go and process collectors, on a fresh
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of summarization runs",
			},
			[]string{"outcome"},
		),
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of validated summaries",
			},
			[]string{"provider"},
		),
		FallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Total number of switches to the local provider",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of summarization runs in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
	}
}

// RecordRun records a finished run. m may be nil.
func (m *Metrics) RecordRun(outcome string, provider string, items int, seconds float64) {
	if m == nil {
		return
	}

	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(seconds)

	if provider != "" && items > 0 {
		m.ItemsTotal.WithLabelValues(provider).Add(float64(items))
	}
}

// RecordFallback records a switch to the local provider. m may be nil.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}

	m.FallbacksTotal.Inc()
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return r
}

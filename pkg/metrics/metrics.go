// Package metrics defines the Prometheus collectors for the answer service
// and the /metrics handler that exposes them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cakg"

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// questions answered, labelled by question type and outcome
	// (answered, invalid, error)
	questions *prometheus.CounterVec
	// search latency by question type
	searchSeconds *prometheus.HistogramVec
	// chart renders by status (ok, error)
	renders *prometheus.CounterVec
	// HTTP requests by route and status code
	httpRequests *prometheus.CounterVec
	// loaded graph size by node kind
	graphNodes *prometheus.GaugeVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// binaries and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		questions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "questions_total",
			Help:      "Questions processed by question type and outcome",
		}, []string{"type", "outcome"}),
		searchSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "search_seconds",
			Help:      "Answer computation latency by question type",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"type"}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "charts_total",
			Help:      "Rendered chart pages by status",
		}, []string{"status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		graphNodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Loaded graph size by node kind",
		}, []string{"kind"}),
	}
}

// ObserveQuestion records one processed question.
func (m *Metrics) ObserveQuestion(questionType, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(questionType, outcome).Inc()
	m.searchSeconds.WithLabelValues(questionType).Observe(took.Seconds())
}

// ObserveRender records one chart render.
func (m *Metrics) ObserveRender(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.renders.WithLabelValues(status).Inc()
}

// ObserveHTTP records one HTTP response.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetGraphSize publishes node counts of the loaded graph.
func (m *Metrics) SetGraphSize(counts map[string]int) {
	if m == nil {
		return
	}
	for kind, n := range counts {
		m.graphNodes.WithLabelValues(kind).Set(float64(n))
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

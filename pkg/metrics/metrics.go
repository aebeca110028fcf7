// Package metrics records Prometheus metrics for generation, chat and ingestion.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the service's collectors. A nil *Recorder records nothing,
// so components can be built without metrics in tests.
type Recorder struct {
	registry          *prometheus.Registry
	generatorCalls    *prometheus.CounterVec
	generatorDuration *prometheus.HistogramVec
	chatRequests      *prometheus.CounterVec
	reasoningSteps    *prometheus.CounterVec
	ingestedChunks    prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		generatorCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_generator_calls_total",
				Help: "Total number of text generation calls by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		generatorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rag_generator_duration_seconds",
				Help:    "Duration of text generation calls in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
			},
			[]string{"model"},
		),
		chatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_chat_requests_total",
				Help: "Total number of chat requests by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		reasoningSteps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_reasoning_steps_total",
				Help: "Total number of reasoning steps recorded by type",
			},
			[]string{"type"},
		),
		ingestedChunks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rag_ingested_chunks_total",
				Help: "Total number of chunks written to the vector store",
			},
		),
	}
}

// ObserveGeneration records one generator call. outcome is "ok", "error" or
// "timeout".
func (r *Recorder) ObserveGeneration(model, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.generatorCalls.WithLabelValues(model, outcome).Inc()
	r.generatorDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// ObserveChat records one chat request. mode is "recursive" or "direct".
func (r *Recorder) ObserveChat(mode string, success bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	r.chatRequests.WithLabelValues(mode, outcome).Inc()
}

func (r *Recorder) IncStep(stepType string) {
	if r == nil {
		return
	}
	r.reasoningSteps.WithLabelValues(stepType).Inc()
}

func (r *Recorder) AddChunks(n int) {
	if r == nil {
		return
	}
	r.ingestedChunks.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

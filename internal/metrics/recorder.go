// Package metrics exposes crawl counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vendor_crawler"

// Recorder counts candidate outcomes and finished runs. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	candidates *prometheus.CounterVec
	confidence prometheus.Histogram
	runs       *prometheus.CounterVec
}

// NewRecorder returns a Recorder backed by its own registry, which also
// carries the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Discovered candidates by source and outcome.",
		}, []string{"source", "outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dedup_confidence",
			Help:      "Confidence of duplicate matches.",
			Buckets:   []float64{40, 50, 60, 70, 80, 90, 100},
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished crawl runs by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		r.candidates,
		r.confidence,
		r.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Outcome counts one processed candidate.
func (r *Recorder) Outcome(source, outcome string) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(source, outcome).Inc()
}

// Confidence observes the confidence of a duplicate match.
func (r *Recorder) Confidence(c int) {
	if r == nil {
		return
	}
	r.confidence.Observe(float64(c))
}

// RunFinished counts a finalized run.
func (r *Recorder) RunFinished(status string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

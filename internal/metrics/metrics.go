// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "ontograph"
	subsystem = "pipeline"
)

// Pipeline implements ingestion.Observer.
type Pipeline struct {
	registry *prometheus.Registry

	documentsTotal     *prometheus.CounterVec
	stageVisits        *prometheus.CounterVec
	critiqueRejections *prometheus.CounterVec
	documentDuration   prometheus.Histogram
	aggregatedTriples  prometheus.Histogram
}

// New registers the pipeline collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		documentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "documents_total",
			Help:      "Documents processed, by terminal status.",
		}, []string{"status"}),
		stageVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_visits_total",
			Help:      "Stage entries, by stage.",
		}, []string{"stage"}),
		critiqueRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "critique_rejections_total",
			Help:      "Critique verdicts that rejected an attempt, by stage.",
		}, []string{"stage"}),
		documentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "document_duration_seconds",
			Help:      "Wall time per document.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		aggregatedTriples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "aggregated_triples",
			Help:      "Triples in the aggregated fact graph of each document.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	p.registry.MustRegister(
		p.documentsTotal,
		p.stageVisits,
		p.critiqueRejections,
		p.documentDuration,
		p.aggregatedTriples,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Pipeline) StageEntered(stage string) {
	p.stageVisits.WithLabelValues(stage).Inc()
}

func (p *Pipeline) CritiqueRejected(stage string) {
	p.critiqueRejections.WithLabelValues(stage).Inc()
}

func (p *Pipeline) DocumentFinished(status string, d time.Duration, triples int) {
	p.documentsTotal.WithLabelValues(status).Inc()
	p.documentDuration.Observe(d.Seconds())
	p.aggregatedTriples.Observe(float64(triples))
}

// Registry returns the registry the collectors live on.
func (p *Pipeline) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

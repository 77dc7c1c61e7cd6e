// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// Ensure Prometheus implements the interface.
var _ driven.Metrics = (*Prometheus)(nil)

const namespace = "bookingest"

// Prometheus records pipeline counters in its own registry.
type Prometheus struct {
	registry *prometheus.Registry
	jobs     *prometheus.CounterVec
	pages    prometheus.Counter
	ocrPages *prometheus.CounterVec
	words    prometheus.Counter
	retries  prometheus.Counter
}

// New creates and registers the collectors.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Ingest units finished, by job kind and outcome.",
		}, []string{"kind", "outcome"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_built_total",
			Help:      "Canvases created.",
		}),
		ocrPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_pages_total",
			Help:      "Pages visited by OCR passes, by outcome.",
		}, []string{"outcome"}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_words_total",
			Help:      "OCR words stored.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries of transient failures.",
		}),
	}
	p.registry.MustRegister(
		p.jobs, p.pages, p.ocrPages, p.words, p.retries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// JobFinished counts one unit of ingest work.
func (p *Prometheus) JobFinished(kind domain.JobKind, outcome domain.ErrorKind) {
	if kind == "" {
		kind = domain.JobSingle
	}
	label := string(outcome)
	if outcome == domain.KindNone {
		label = "ok"
	}
	p.jobs.WithLabelValues(string(kind), label).Inc()
}

// PagesBuilt counts created canvases.
func (p *Prometheus) PagesBuilt(n int) {
	p.pages.Add(float64(n))
}

// OCRPage counts one page of an OCR pass and the words it stored.
func (p *Prometheus) OCRPage(outcome string, words int) {
	p.ocrPages.WithLabelValues(outcome).Inc()
	p.words.Add(float64(words))
}

// Retried counts a retry.
func (p *Prometheus) Retried() {
	p.retries.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

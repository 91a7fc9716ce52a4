package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes run counters on a Prometheus registry.
type Metrics struct {
	PagesProcessed  prometheus.Counter
	WordsRecognized prometheus.Counter
	PagesFailed     prometheus.Counter
	HyphenMerges    prometheus.Counter
	BytesWritten    prometheus.Counter
	PageSeconds     prometheus.Histogram
}

// newThrowawayRegistry backs pipelines constructed without WithMetrics.
func newThrowawayRegistry() prometheus.Registerer {
	return prometheus.NewRegistry()
}

// NewMetrics registers the pipeline metrics on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry or a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "morphic_pages_processed_total",
			Help: "Pages fully processed and written to the output PDF.",
		}),
		WordsRecognized: factory.NewCounter(prometheus.CounterOpts{
			Name: "morphic_words_recognized_total",
			Help: "Words recognized by OCR across all pages.",
		}),
		PagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "morphic_pages_failed_total",
			Help: "Pages whose processing failed and aborted a run.",
		}),
		HyphenMerges: factory.NewCounter(prometheus.CounterOpts{
			Name: "morphic_hyphen_merges_total",
			Help: "Hyphenated word fragments merged by dictionary validation.",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "morphic_output_bytes_total",
			Help: "Bytes written to finished output PDFs.",
		}),
		PageSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "morphic_page_processing_seconds",
			Help:    "Wall time spent per page from decode to assembly.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

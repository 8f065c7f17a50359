package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	pagesIndexed  *prom.CounterVec
	pagesSkipped  *prom.CounterVec
	runOutcome    *prom.CounterVec
	indexSize     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the run metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "easearch",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "easearch",
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		}),
		pagesIndexed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "easearch",
			Name:      "pages_indexed_total",
			Help:      "Pages added to the search index by document type",
		}, []string{"type"}),
		pagesSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "easearch",
			Name:      "pages_skipped_total",
			Help:      "Pages excluded from the search index by reason",
		}, []string{"reason"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "easearch",
			Name:      "run_outcomes_total",
			Help:      "Runs by final status",
		}, []string{"outcome"}),
		indexSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: "easearch",
			Name:      "index_records",
			Help:      "Number of records in the last written search index",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.pagesIndexed, pr.pagesSkipped, pr.runOutcome, pr.indexSize)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageIndexed(docType string) {
	if p == nil {
		return
	}
	p.pagesIndexed.WithLabelValues(docType).Inc()
}

func (p *PrometheusRecorder) IncPageSkipped(reason string) {
	if p == nil {
		return
	}
	p.pagesSkipped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome Outcome) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetIndexSize(n int) {
	if p == nil {
		return
	}
	p.indexSize.Set(float64(n))
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format. The file is written to a temporary name and renamed.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	apiRequests      *prom.CounterVec
	retries          *prom.CounterVec
	pagesSynced      prom.Counter
	pagesSkipped     *prom.CounterVec
	assetsDownloaded prom.Counter
	assetDedupHits   prom.Counter
	runDuration      prom.Histogram
	runOutcomes      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers sync metrics on reg
// (a fresh registry is created when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		apiRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "api_requests_total",
			Help:      "Wiki API requests by HTTP method",
		}, []string{"method"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "request_retries_total",
			Help:      "Transient request retries by operation",
		}, []string{"operation"}),
		pagesSynced: prom.NewCounter(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "pages_synced_total",
			Help:      "Pages converted and emitted",
		}),
		pagesSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "pages_skipped_total",
			Help:      "Pages skipped by reason",
		}, []string{"reason"}),
		assetsDownloaded: prom.NewCounter(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "assets_downloaded_total",
			Help:      "Unique assets downloaded",
		}),
		assetDedupHits: prom.NewCounter(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "asset_dedup_hits_total",
			Help:      "Asset references served from the run-scoped dedup table",
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "wikimirror",
			Name:      "run_duration_seconds",
			Help:      "Total sync run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "wikimirror",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.apiRequests, pr.retries, pr.pagesSynced, pr.pagesSkipped,
		pr.assetsDownloaded, pr.assetDedupHits, pr.runDuration, pr.runOutcomes)
	return pr
}

func (p *PrometheusRecorder) IncAPIRequest(method string) {
	if p == nil {
		return
	}
	p.apiRequests.WithLabelValues(method).Inc()
}

func (p *PrometheusRecorder) IncRetry(op string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncPageSynced() {
	if p == nil {
		return
	}
	p.pagesSynced.Inc()
}

func (p *PrometheusRecorder) IncPageSkipped(reason string) {
	if p == nil {
		return
	}
	p.pagesSkipped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncAssetDownloaded() {
	if p == nil {
		return
	}
	p.assetsDownloaded.Inc()
}

func (p *PrometheusRecorder) IncAssetDedupHit() {
	if p == nil {
		return
	}
	p.assetDedupHits.Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}

// HTTPHandler returns an http.Handler serving Prometheus metrics for the registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldsync"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg                *prom.Registry
	submissionDuration *prom.HistogramVec
	submissions        *prom.CounterVec
	queueDepth         *prom.GaugeVec
	flushes            *prom.CounterVec
	flushedItems       *prom.CounterVec
	online             prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg (a
// fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		submissionDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time spent in the save collaborator per submission",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		submissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome",
		}, []string{"kind", "outcome"}),
		queueDepth: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "offline_queue_depth",
			Help:      "Items waiting in the offline queue",
		}, []string{"kind"}),
		flushes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Offline queue flush passes by result",
		}, []string{"kind", "result"}),
		flushedItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_items_total",
			Help:      "Items handled by flush passes",
		}, []string{"kind", "result"}),
		online: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 when the connectivity signal reports online",
		}),
	}
	reg.MustRegister(pr.submissionDuration, pr.submissions, pr.queueDepth, pr.flushes, pr.flushedItems, pr.online)
	return pr
}

func (p *PrometheusRecorder) ObserveSubmission(kind, outcome string, d time.Duration) {
	p.submissions.WithLabelValues(kind, outcome).Inc()
	if d > 0 {
		p.submissionDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

func (p *PrometheusRecorder) SetQueueDepth(kind string, depth int) {
	p.queueDepth.WithLabelValues(kind).Set(float64(depth))
}

func (p *PrometheusRecorder) IncFlush(kind, result string) {
	p.flushes.WithLabelValues(kind, result).Inc()
}

func (p *PrometheusRecorder) IncFlushedItems(kind string, delivered, failed int) {
	if delivered > 0 {
		p.flushedItems.WithLabelValues(kind, "delivered").Add(float64(delivered))
	}
	if failed > 0 {
		p.flushedItems.WithLabelValues(kind, "failed").Add(float64(failed))
	}
}

func (p *PrometheusRecorder) SetOnline(online bool) {
	if online {
		p.online.Set(1)
		return
	}
	p.online.Set(0)
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

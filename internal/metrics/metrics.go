// Package metrics exposes Prometheus collectors for the render server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pdfrender "github.com/alnah/go-pdfrender"
)

var _ pdfrender.Recorder = (*Metrics)(nil)

const namespace = "pdfrender"

// Metrics holds the server collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	batchesTotal  prometheus.Counter
	queueDepth    prometheus.Gauge
	jobsTotal     *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	openTabs      prometheus.Gauge
	mergesTotal   *prometheus.CounterVec
	uploadsTotal  *prometheus.CounterVec
	requestsTotal *prometheus.CounterVec
	errorsTotal   prometheus.Counter
}

// New creates and registers the collectors, plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of render batches submitted",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Batches waiting for dispatch",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Render jobs by outcome (ok, failed, timeout)",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from tab open to PDF bytes",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		openTabs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_tabs",
			Help:      "Browser tabs currently rendering",
		}),
		mergesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "PDF merges by outcome (ok, failed)",
		}, []string{"outcome"}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Object storage uploads by outcome (ok, failed)",
		}, []string{"outcome"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP responses with status >= 400",
		}),
	}

	m.registry.MustRegister(
		m.batchesTotal,
		m.queueDepth,
		m.jobsTotal,
		m.jobDuration,
		m.openTabs,
		m.mergesTotal,
		m.uploadsTotal,
		m.requestsTotal,
		m.errorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// BatchQueued counts a submitted batch waiting in the queue.
func (m *Metrics) BatchQueued() {
	m.batchesTotal.Inc()
	m.queueDepth.Inc()
}

// BatchDequeued records that the dispatcher picked a batch up.
func (m *Metrics) BatchDequeued() {
	m.queueDepth.Dec()
}

// TabOpened increments the open tabs gauge.
func (m *Metrics) TabOpened() {
	m.openTabs.Inc()
}

// TabClosed decrements the open tabs gauge.
func (m *Metrics) TabClosed() {
	m.openTabs.Dec()
}

// JobDone records a finished job.
func (m *Metrics) JobDone(outcome string, d time.Duration) {
	m.jobsTotal.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(d.Seconds())
}

// MergeDone records a merge attempt.
func (m *Metrics) MergeDone(err error) {
	m.mergesTotal.WithLabelValues(outcome(err)).Inc()
}

// UploadDone records an upload attempt.
func (m *Metrics) UploadDone(err error) {
	m.uploadsTotal.WithLabelValues(outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohankatakam/devpulse/internal/analytics"
)

const namespace = "devpulse"

// Metrics holds the server's Prometheus collectors. Each server gets its own
// registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	datasetCommits  prometheus.Gauge
	datasetExcluded prometheus.Gauge
	datasetDupes    prometheus.Gauge
	datasetRejected *prometheus.GaugeVec
	datasetReloads  *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		datasetCommits: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "commits",
			Help:      "Scored commits in the loaded dataset",
		}),
		datasetExcluded: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "excluded_commits",
			Help:      "Commits dropped because their author is excluded",
		}),
		datasetDupes: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "duplicate_commits",
			Help:      "Commits dropped because their sha was already seen in another repository",
		}),
		datasetRejected: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rejected_records",
			Help:      "Malformed records rejected from the loaded dataset, by reason",
		}, []string{"reason"}),
		datasetReloads: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "reloads_total",
			Help:      "Dataset reloads by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDataset publishes the data-quality report of a freshly loaded dataset
func (m *Metrics) ObserveDataset(report analytics.Report) {
	m.datasetCommits.Set(float64(report.Accepted))
	m.datasetExcluded.Set(float64(report.Excluded))
	m.datasetDupes.Set(float64(report.Duplicates))
	m.datasetRejected.Reset()
	for reason, n := range report.RejectedByReason {
		m.datasetRejected.WithLabelValues(reason).Set(float64(n))
	}
}

func (m *Metrics) observeReload(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.datasetReloads.WithLabelValues(result).Inc()
}

// middleware records request counts and latency by matched route
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

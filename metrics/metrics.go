package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marko-code-lab/noiddea-demo-sub002/config"
)

type Metrics struct {
	registry        *prometheus.Registry
	httpReqCnt      *prometheus.CounterVec
	httpDur         *prometheus.HistogramVec
	httpInfl        *prometheus.GaugeVec
	schedulerRuns   *prometheus.CounterVec
	schedulerDur    prometheus.Histogram
	autoReceived    prometheus.Counter
	sessionsExpired prometheus.Counter
	salesTotal      *prometheus.CounterVec
	bridgeQueries   *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	schedulerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "scheduler_runs_total"}, []string{"status"})
	schedulerDur := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: ns, Name: "scheduler_run_duration_seconds", Buckets: cfg.Buckets})
	autoReceived := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "purchases_auto_received_total"})
	sessionsExpired := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "sessions_auto_closed_total"})
	r.MustRegister(schedulerRuns, schedulerDur, autoReceived, sessionsExpired)

	salesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "sales_total"}, []string{"payment_method"})
	bridgeQueries := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "bridge_queries_total"}, []string{"kind", "status"})
	r.MustRegister(salesTotal, bridgeQueries)

	return &Metrics{
		registry:        r,
		httpReqCnt:      httpReqCnt,
		httpDur:         httpDur,
		httpInfl:        httpInfl,
		schedulerRuns:   schedulerRuns,
		schedulerDur:    schedulerDur,
		autoReceived:    autoReceived,
		sessionsExpired: sessionsExpired,
		salesTotal:      salesTotal,
		bridgeQueries:   bridgeQueries,
	}
}

// SchedulerRun records one poller tick. A nil receiver is a no-op so
// components can run without metrics.
func (m *Metrics) SchedulerRun(since time.Time, received int, closed int64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.schedulerRuns.WithLabelValues(status).Inc()
	m.schedulerDur.Observe(time.Since(since).Seconds())
	m.autoReceived.Add(float64(received))
	m.sessionsExpired.Add(float64(closed))
}

func (m *Metrics) SaleRecorded(method string) {
	if m == nil {
		return
	}
	m.salesTotal.WithLabelValues(method).Inc()
}

func (m *Metrics) BridgeQuery(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.bridgeQueries.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marko-code-lab/noiddea-demo-sub002/config"
)

func newMetrics() *Metrics {
	return New(config.MetricsConfig{Namespace: "pos", Buckets: []float64{0.1, 1}})
}

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newMetrics()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/products/1", "/api/products/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpReqCnt.WithLabelValues("GET", "/api/products/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInfl.WithLabelValues("/api/products/:id")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pos_http_requests_total")
}

func TestSchedulerRun(t *testing.T) {
	m := newMetrics()

	m.SchedulerRun(time.Now(), 2, 3, nil)
	m.SchedulerRun(time.Now(), 0, 1, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.schedulerRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schedulerRuns.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.autoReceived))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessionsExpired))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SchedulerRun(time.Now(), 1, 1, nil)
		m.SaleRecorded("cash")
		m.BridgeQuery("query", nil)
	})
}

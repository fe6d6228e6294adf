// Package metrics 提供 Prometheus 指标收集单元测试
package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// counterValue 从注册表中读取计数器的值
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := true
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if matched {
				if metric.GetCounter() != nil {
					return metric.GetCounter().GetValue()
				}
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	t.Run("使用默认命名空间", func(t *testing.T) {
		m := New("", prometheus.NewRegistry())
		require.NotNil(t, m)
		assert.NotNil(t, m.httpRequestsTotal)
		assert.NotNil(t, m.reportsTotal)
		assert.NotNil(t, m.settingCacheTotal)
		assert.Equal(t, "/metrics", m.skipPath)
	})

	t.Run("同一注册表重复注册会失败", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		New("dup", reg)
		assert.Panics(t, func() { New("dup", reg) })
	})
}

func TestMetrics_FinanceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("tf", reg)

	m.RecordReport("month", 20*time.Millisecond)
	m.RecordReport("month", 10*time.Millisecond)
	m.RecordReport("range", time.Millisecond)
	m.RecordCourseWarning("malformed_course")
	m.RecordDividendConfirmation("conflict")
	m.RecordSettingCache("hit")
	m.RecordSettingCache("miss")
	m.RecordSettingCache("hit")

	assert.Equal(t, 2.0, counterValue(t, reg, "tf_reports_total", map[string]string{"period_type": "month"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tf_reports_total", map[string]string{"period_type": "range"}))
	assert.Equal(t, 3.0, counterValue(t, reg, "tf_report_duration_seconds", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "tf_course_warnings_total", map[string]string{"code": "malformed_course"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "tf_dividend_confirmations_total", map[string]string{"result": "conflict"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "tf_setting_cache_total", map[string]string{"result": "hit"}))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordReport("month", time.Second)
		m.RecordCourseWarning("x")
		m.RecordDividendConfirmation("ok")
		m.RecordSettingCache("hit")
		assert.Nil(t, m.WithSkipPath("/x"))
	})

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test_middleware", reg).WithSkipPath("/internal/metrics")

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/internal/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "metrics")
	})

	t.Run("记录请求指标", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1.0, counterValue(t, reg, "test_middleware_http_requests_total",
			map[string]string{"path": "/api/test", "status": "200"}))
	})

	t.Run("跳过指标端点", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0.0, counterValue(t, reg, "test_middleware_http_requests_total",
			map[string]string{"path": "/internal/metrics"}))
	})
}

func TestInitAndHandler(t *testing.T) {
	m := Init("test_handler")
	assert.Same(t, m, GetMetrics())

	router := gin.New()
	router.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_")
}

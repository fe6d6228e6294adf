// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器，方法对 nil 接收者安全
type Metrics struct {
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDuration        *prometheus.HistogramVec
	httpRequestsInFlight       prometheus.Gauge
	reportsTotal               *prometheus.CounterVec
	reportDuration             prometheus.Histogram
	courseWarningsTotal        *prometheus.CounterVec
	dividendConfirmationsTotal *prometheus.CounterVec
	settingCacheTotal          *prometheus.CounterVec

	skipPath string
}

var defaultMetrics *Metrics

// Init 在默认注册表上初始化指标收集器
func Init(namespace string) *Metrics {
	defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	return defaultMetrics
}

// New 在指定注册表上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "tutor_finance"
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Total number of profit reports generated",
			},
			[]string{"period_type"},
		),
		reportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Profit report generation time in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		courseWarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "course_warnings_total",
				Help:      "Total number of courses skipped during aggregation",
			},
			[]string{"code"},
		),
		dividendConfirmationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dividend_confirmations_total",
				Help:      "Total number of monthly dividend confirmations",
			},
			[]string{"result"},
		),
		settingCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "setting_cache_total",
				Help:      "Setting cache lookups by result",
			},
			[]string{"result"},
		),
		skipPath: "/metrics",
	}
}

// GetMetrics 获取默认指标收集器，未初始化时返回 nil
func GetMetrics() *Metrics {
	return defaultMetrics
}

// WithSkipPath 设置中间件忽略的路径
func (m *Metrics) WithSkipPath(path string) *Metrics {
	if m != nil && path != "" {
		m.skipPath = path
	}
	return m
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == m.skipPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordReport 记录一次利润报表生成
func (m *Metrics) RecordReport(periodType string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(periodType).Inc()
	m.reportDuration.Observe(duration.Seconds())
}

// RecordCourseWarning 记录聚合时跳过的课程
func (m *Metrics) RecordCourseWarning(code string) {
	if m == nil {
		return
	}
	m.courseWarningsTotal.WithLabelValues(code).Inc()
}

// RecordDividendConfirmation 记录分红确认结果
func (m *Metrics) RecordDividendConfirmation(result string) {
	if m == nil {
		return
	}
	m.dividendConfirmationsTotal.WithLabelValues(result).Inc()
}

// RecordSettingCache 记录配置缓存命中情况 (hit/miss/error)
func (m *Metrics) RecordSettingCache(result string) {
	if m == nil {
		return
	}
	m.settingCacheTotal.WithLabelValues(result).Inc()
}

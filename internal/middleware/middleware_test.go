package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(r, http.MethodGet, "/ping", nil, nil)
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = serve(r, http.MethodGet, "/ping", nil, map[string]string{HeaderRequestID: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-1", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, http.MethodGet, "/panic", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "服务器内部错误")
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimiter(8))
	r.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/echo", []byte("{}"), nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/echo", []byte(`{"amount":"1000"}`), nil).Code)
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins:   []string{"https://admin.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           600,
	}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/data", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("允许的源", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/data", nil, map[string]string{"Origin": "https://admin.example.com"})
		assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Equal(t, HeaderRequestID, w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("未登记的源", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/data", nil, map[string]string{"Origin": "https://evil.example.com"})
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求", func(t *testing.T) {
		w := serve(r, http.MethodOptions, "/data", nil, map[string]string{"Origin": "https://admin.example.com"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("默认允许所有源", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(nil))
		r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := serve(r, http.MethodGet, "/data", nil, map[string]string{"Origin": "https://any.example.com"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)

	cfg := NewRateLimitConfig(&config.RateLimitConfig{Enabled: true, Limit: 2, Window: 60}, client)
	require.NotNil(t, cfg)

	r := gin.New()
	r.Use(WriteOnly(RateLimit(cfg)))
	r.POST("/courses", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/courses", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/courses", nil, nil).Code)
	w := serve(r, http.MethodPost, "/courses", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(r, http.MethodPost, "/courses", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "1008")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 读请求不计数
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/courses", nil, nil).Code)

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/courses", nil, nil).Code)
}

func TestNewRateLimitConfig_Disabled(t *testing.T) {
	_, client := testutil.NewTestRedis(t)

	assert.Nil(t, NewRateLimitConfig(nil, client))
	assert.Nil(t, NewRateLimitConfig(&config.RateLimitConfig{Enabled: false, Limit: 10}, client))
	assert.Nil(t, NewRateLimitConfig(&config.RateLimitConfig{Enabled: true, Limit: 10}, nil))

	r := gin.New()
	r.Use(RateLimit(nil))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/x", nil, nil).Code)
	}
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := gin.New()
	r.Use(RequestID(), Tracing(&TracingConfig{ServiceName: "test", SkipPaths: []string{"/health"}}))
	r.GET("/courses/:id", func(c *gin.Context) {
		c.String(http.StatusOK, GetTraceID(c))
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/courses/42", nil, nil)
	assert.NotEmpty(t, w.Body.String())
	serve(r, http.MethodGet, "/health", nil, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /courses/:id", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "42", attrs["resource.id"])
	assert.Equal(t, "200", attrs["http.status_code"])
	assert.Equal(t, w.Body.String(), spans[0].SpanContext().TraceID().String())
}

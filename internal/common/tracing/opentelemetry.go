// Package tracing 提供 OpenTelemetry 分布式追踪
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
)

const instrumentationName = "github.com/dumeirei/tutor-finance-backend"

// Config 追踪配置
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string // OTLP endpoint，为空时输出到 stdout
	SampleRate     float64
	Enabled        bool
}

// FromConfig 由应用配置生成追踪配置
func FromConfig(cfg *config.TracingConfig, version, env string) *Config {
	return &Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    env,
		Endpoint:       cfg.Endpoint,
		SampleRate:     cfg.SampleRate,
		Enabled:        cfg.Enabled,
	}
}

// Tracer 追踪器包装
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   *Config
}

var defaultTracer *Tracer

// Init 初始化追踪器，未启用时返回空操作追踪器
func Init(cfg *Config) (*Tracer, error) {
	if cfg == nil {
		cfg = &Config{
			ServiceName: "tutor-finance-backend",
			Environment: "development",
			SampleRate:  1.0,
		}
	}

	if !cfg.Enabled {
		defaultTracer = &Tracer{config: cfg}
		return defaultTracer, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("创建资源失败: %w", err)
	}

	var exporter sdktrace.SpanExporter
	if cfg.Endpoint != "" {
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		exporter, err = otlptrace.New(context.Background(), client)
		if err != nil {
			return nil, fmt.Errorf("创建 OTLP 导出器失败: %w", err)
		}
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("创建 stdout 导出器失败: %w", err)
		}
	}

	provider := NewProvider(cfg, sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	defaultTracer = &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
		config:   cfg,
	}
	return defaultTracer, nil
}

// NewProvider 按采样率创建 TracerProvider
func NewProvider(cfg *Config, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}
	opts = append(opts, sdktrace.WithSampler(sdktrace.ParentBased(sampler)))
	return sdktrace.NewTracerProvider(opts...)
}

// Use 以给定 provider 作为默认追踪器
func Use(provider *sdktrace.TracerProvider) *Tracer {
	defaultTracer = &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
		config:   &Config{Enabled: true},
	}
	return defaultTracer
}

// GetTracer 获取默认追踪器
func GetTracer() *Tracer {
	return defaultTracer
}

// Shutdown 关闭追踪器
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t != nil && t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// StartSpan 开始一个带属性的 span，追踪未启用时返回空操作 span
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName).Start(ctx, name)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartSpan 使用默认追踪器开始 span
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return defaultTracer.StartSpan(ctx, name, attrs...)
}

// EndSpan 结束 span，出错时记录错误并标记状态
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetAttributes 设置当前 span 属性
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// 常用属性键
var (
	AttrPeriodStart = attribute.Key("finance.period.start")
	AttrPeriodEnd   = attribute.Key("finance.period.end")
	AttrPeriodType  = attribute.Key("finance.period.type")
	AttrCourseCount = attribute.Key("finance.course.count")
	AttrEmployeeID  = attribute.Key("employee.id")
	AttrDividend    = attribute.Key("finance.dividend.month")
)

// WithPeriod 统计区间属性
func WithPeriod(start, end time.Time) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPeriodStart.String(start.Format("2006-01-02")),
		AttrPeriodEnd.String(end.Format("2006-01-02")),
	}
}

// WithDividendMonth 分红月份属性
func WithDividendMonth(year, month int) attribute.KeyValue {
	return AttrDividend.String(fmt.Sprintf("%04d-%02d", year, month))
}

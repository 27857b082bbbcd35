// Copyright 2026 fanjia1024
// OpenTelemetry integration for distributed tracing

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mail-genie"

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer 初始化 OpenTelemetry tracer
func InitTracer(config OTelConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartPipelineSpan 开始一次邮件生成管线 span
func StartPipelineSpan(ctx context.Context, goalLen int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.Int("goal.length", goalLen),
		),
	)
}

// StartStepSpan 开始单个计划步骤 span
func StartStepSpan(ctx context.Context, index int, label, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline.step",
		trace.WithAttributes(
			attribute.Int("step.index", index),
			attribute.String("step.label", label),
			attribute.String("step.tool", tool),
		),
	)
}

// StartCompletionSpan 开始一次结构化补全 span
func StartCompletionSpan(ctx context.Context, prompt, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.prompt", prompt),
			attribute.String("llm.provider", provider),
		),
	)
}

// EndSpan 记录错误（若有）并结束 span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

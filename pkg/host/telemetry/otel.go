// Package telemetry instruments host lifecycle calls with OpenTelemetry.
//
// Usage:
//
//	h, err := host.New(cfg, backend, host.WithHook(telemetry.New(telemetry.DefaultConfig())))
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/justyntemme/vfxgo/pkg/host"
)

const instrumentationName = "vfxgo"

// Config configures the hook.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	EnableTracing bool
	EnableMetrics bool
	// RecordErrors calls RecordError on the span of a failed call.
	RecordErrors bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig enables everything against the global providers.
func DefaultConfig() Config {
	return Config{EnableTracing: true, EnableMetrics: true, RecordErrors: true}
}

type otelHook struct {
	cfg      Config
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	bypassed metric.Int64Counter
}

// New returns a host.Hook that opens a span per lifecycle call and records
// vfx.calls, vfx.call.duration and vfx.bypass.
func New(cfg Config) host.Hook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	h := &otelHook{cfg: cfg, tracer: cfg.TracerProvider.Tracer(instrumentationName)}
	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.calls, _ = meter.Int64Counter("vfx.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of plugin lifecycle calls"),
		)
		h.duration, _ = meter.Float64Histogram("vfx.call.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of plugin lifecycle calls"),
		)
		h.bypassed, _ = meter.Int64Counter("vfx.bypass",
			metric.WithUnit("{frame}"),
			metric.WithDescription("Frames the plugin did not render"),
		)
	}
	return h
}

type spanToken struct {
	span  trace.Span
	start time.Time
}

func (h *otelHook) OnCallStart(ctx context.Context, info host.CallInfo) (context.Context, host.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{start: time.Now()}
	}
	attrs := append([]attribute.KeyValue{
		attribute.String("vfx.call", info.Call),
		attribute.String("vfx.plugin", info.Plugin),
		attribute.String("vfx.instance", info.Instance),
	}, h.cfg.CustomAttributes...)
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("vfx/%s", info.Call),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, &spanToken{span: span, start: time.Now()}
}

func (h *otelHook) OnCallEnd(ctx context.Context, token host.HookToken, info host.CallInfo, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}
	elapsed := time.Since(st.start)
	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		attrs := metric.WithAttributes(
			attribute.String("vfx.call", info.Call),
			attribute.String("vfx.plugin", info.Plugin),
			attribute.String("status", status),
		)
		h.calls.Add(ctx, 1, attrs)
		h.duration.Record(ctx, elapsed.Seconds(), attrs)
		if info.Bypassed {
			h.bypassed.Add(ctx, 1, metric.WithAttributes(attribute.String("vfx.plugin", info.Plugin)))
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}
	if info.Call == "Process" {
		st.span.SetAttributes(attribute.Bool("vfx.bypassed", info.Bypassed))
	}
	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordErrors {
			st.span.RecordError(err)
		}
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()
}

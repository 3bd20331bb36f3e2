// Package telemetry provides OpenTelemetry instrumentation for the gateway.
// It implements [dispatch.DispatchHook] to add a server span, a call counter
// and a latency histogram around every dispatched call.
//
// Usage:
//
//	d := dispatch.New(provider, decode, encode, hooks)
//	telemetry.Instrument(d, telemetry.DefaultConfig())
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/schemarpc/gateway/internal/dispatch"
	"github.com/schemarpc/gateway/internal/types"
)

const instrumentationName = "schemarpc_gateway"

// Config configures the instrumentation.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// ServiceName is the rpc.service attribute value.
	ServiceName string
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
}

// DefaultConfig returns a Config with tracing and metrics enabled; providers
// are resolved from the global OTel SDK at instrumentation time.
func DefaultConfig() Config {
	return Config{
		EnableTracing: true,
		EnableMetrics: true,
		ServiceName:   "gateway",
	}
}

// Instrument attaches the hook to a dispatcher. Must run before serving
// begins.
func Instrument(d *dispatch.Dispatcher, cfg Config) {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	hook := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}
	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		hook.callCounter, _ = meter.Int64Counter("rpc.server.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of dispatched calls"),
		)
		hook.durationHistogram, _ = meter.Float64Histogram("rpc.server.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of dispatched calls"),
		)
	}
	d.SetDispatchHook(hook)
}

type otelHook struct {
	cfg               Config
	tracer            trace.Tracer
	callCounter       metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

type spanToken struct {
	span      trace.Span
	startTime time.Time
}

func (h *otelHook) OnDispatchStart(ctx context.Context, info dispatch.DispatchInfo) (context.Context, dispatch.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	ctx, span := h.tracer.Start(ctx, "rpc/"+info.Call,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "schemarpc"),
			attribute.String("rpc.service", h.cfg.ServiceName),
			attribute.String("rpc.method", info.Call),
			attribute.String("rpc.request_id", info.RequestID),
			attribute.Int("rpc.protocol_version", info.Version),
			attribute.String("net.peer.ip", info.SourceIP),
		),
	)
	return ctx, &spanToken{span: span, startTime: time.Now()}
}

func (h *otelHook) OnDispatchEnd(ctx context.Context, token dispatch.HookToken, info dispatch.DispatchInfo, callErr *types.CallError) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}
	duration := time.Since(st.startTime)

	outcome := "OK"
	if callErr != nil {
		outcome = callErr.Type
	}

	if h.cfg.EnableMetrics {
		attrs := metric.WithAttributes(
			attribute.String("rpc.service", h.cfg.ServiceName),
			attribute.String("rpc.method", info.Call),
			attribute.String("outcome", outcome),
		)
		if h.callCounter != nil {
			h.callCounter.Add(ctx, 1, attrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), attrs)
		}
	}

	if st.span != nil && st.span.IsRecording() {
		if callErr != nil {
			st.span.SetStatus(codes.Error, callErr.Message)
			st.span.SetAttributes(attribute.String("rpc.error_type", callErr.Type))
		} else {
			st.span.SetStatus(codes.Ok, "")
		}
		st.span.End()
	}
}

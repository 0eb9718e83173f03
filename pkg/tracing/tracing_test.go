package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ServiceName != "chen" {
		t.Errorf("ServiceName = %q, want %q", config.ServiceName, "chen")
	}
	if config.ExporterType != "stdout" {
		t.Errorf("ExporterType = %q, want %q", config.ExporterType, "stdout")
	}
	if config.SamplingRate != 1.0 {
		t.Errorf("SamplingRate = %v, want 1.0", config.SamplingRate)
	}
	if !config.Enabled {
		t.Error("Enabled = false, want true by default")
	}
}

func TestInitTracingDisabledReturnsNoopProvider(t *testing.T) {
	tp, err := InitTracing(&Config{ServiceName: "test", Enabled: false})
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	defer tp.Shutdown(context.Background())

	if tp.GetTracer("chen") == nil {
		t.Error("GetTracer on a disabled provider returned nil")
	}
}

func TestInitTracingStdoutExporter(t *testing.T) {
	tp, err := InitTracing(&Config{
		ServiceName:  "chen",
		Enabled:      true,
		ExporterType: "stdout",
		SamplingRate: 1.0,
	})
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	defer tp.Shutdown(context.Background())
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(&Config{Enabled: true, ExporterType: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected an error for an unsupported exporter type")
	}
}

func TestStartSpanRecordsOneSpanPerExecute(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("chen")
	_, span := tracer.Start(context.Background(), "vm.execute")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Name != "vm.execute" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "vm.execute")
	}
}

func TestCoroutineAttributesCarriesIDAndStatus(t *testing.T) {
	attrs := CoroutineAttributes(7, "suspended")
	if len(attrs) != 2 {
		t.Fatalf("len(attrs) = %d, want 2", len(attrs))
	}
	if attrs[0].Value.AsInt64() != 7 {
		t.Errorf("attrs[0] = %v, want coroutine_id=7", attrs[0])
	}
	if attrs[1].Value.AsString() != "suspended" {
		t.Errorf("attrs[1] = %v, want coroutine_status=suspended", attrs[1])
	}
}

func TestSetErrorRecordsErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("chen")
	ctx, span := tracer.Start(context.Background(), "coroutine.resume")
	SetError(ctx, errors.New("uncaught exception"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("Status.Code = %v, want codes.Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "uncaught exception" {
		t.Errorf("Status.Description = %q, want %q", spans[0].Status.Description, "uncaught exception")
	}
}

func TestWithSpanEndsSpanAndPropagatesError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(previous)

	boom := errors.New("boom")
	err := WithSpan(context.Background(), "vm.execute", func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("WithSpan returned %v, want %v", err, boom)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("Status.Code = %v, want codes.Error", spans[0].Status.Code)
	}
}

func TestGetTracingInfoReturnsEmptyOutsideASpan(t *testing.T) {
	info := GetTracingInfo(context.Background())
	if info["trace_id"] != "" || info["span_id"] != "" {
		t.Errorf("GetTracingInfo outside a span = %+v, want empty trace/span IDs", info)
	}
}

func TestIsTracingEnabledHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	if IsTracingEnabled() {
		t.Error("IsTracingEnabled() = true, want false when OTEL_SDK_DISABLED=true")
	}

	t.Setenv("OTEL_SDK_DISABLED", "false")
	if !IsTracingEnabled() {
		t.Error("IsTracingEnabled() = false, want true when OTEL_SDK_DISABLED=false")
	}
}

func TestSpanKindConstantsAreDistinct(t *testing.T) {
	if SpanKind.Server == nil || SpanKind.Client == nil || SpanKind.Internal == nil {
		t.Fatal("expected SpanKind.Server/Client/Internal to be non-nil")
	}
}

// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"image_compression/config"
	ttrace "image_compression/internal/telemetry/trace"
	traceExporter "image_compression/internal/telemetry/trace/exporter"
)

const dialTimeout = 10 * time.Second

// InitGlobalProvider builds a tracer provider exporting to the backend
// named by cfg.Exporter ("jaeger", "otlp" or "none") and installs it with
// W3C trace-context and baggage propagation.
func InitGlobalProvider(ctx context.Context, name string, cfg config.OTEL) (ttrace.CloseFunc, error) {
	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)

	switch cfg.Exporter {
	case "jaeger":
		spanExporter, err = traceExporter.NewJaeger(cfg.JaegerEndpoint)
	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		spanExporter, err = traceExporter.NewOTLP(dialCtx, cfg.OTLPEndpoint)
		cancel()
	case "none", "":
	default:
		return nil, fmt.Errorf("telemetry - unknown exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("telemetry - failed initializing the tracer exporter: %w", err)
	}

	builder := ttrace.NewTraceProviderBuilder(name)
	if spanExporter != nil {
		builder.SetExporter(spanExporter)
	}
	tracerProvider, closeFn, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("telemetry - failed initializing the tracer provider: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tracerProvider)

	return closeFn, nil
}

package trace

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
)

// CloseFunc flushes and stops a provider.
type CloseFunc func(ctx context.Context) error

type TraceProviderBuilder struct {
	name     string
	exporter sdktrace.SpanExporter
	sampler  sdktrace.Sampler
}

func NewTraceProviderBuilder(name string) *TraceProviderBuilder {
	return &TraceProviderBuilder{
		name:    name,
		sampler: sdktrace.ParentBased(sdktrace.AlwaysSample()),
	}
}

func (b *TraceProviderBuilder) SetExporter(exp sdktrace.SpanExporter) *TraceProviderBuilder {
	b.exporter = exp
	return b
}

func (b *TraceProviderBuilder) SetSampler(s sdktrace.Sampler) *TraceProviderBuilder {
	b.sampler = s
	return b
}

// Build creates the provider. Without an exporter spans are recorded but
// never exported.
func (b *TraceProviderBuilder) Build() (*sdktrace.TracerProvider, CloseFunc, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceNameKey.String(b.name)))
	if err != nil {
		return nil, nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(b.sampler),
	}
	if b.exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(b.exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	return tp, tp.Shutdown, nil
}

package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// BuildResourceForTest exposes buildResource.
func BuildResourceForTest(cfg Config) (*resource.Resource, error) {
	return buildResource(context.Background(), cfg)
}

// SampledForTest starts one root span with the sampler Init would pick for
// cfg and reports whether it was exported.
func SampledForTest(cfg Config) bool {
	exporter := tracetest.NewInMemoryExporter()
	opts := append([]sdktrace.TracerProviderOption{sdktrace.WithSyncer(exporter)}, samplerOptions(cfg)...)
	tp := sdktrace.NewTracerProvider(opts...)

	_, span := tp.Tracer("test").Start(context.Background(), "root")
	span.End()

	sampled := len(exporter.GetSpans()) > 0

	if err := tp.Shutdown(context.Background()); err != nil {
		return false
	}

	return sampled
}

package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "namefix"

	envTracesSampler = "OTEL_TRACES_SAMPLER"
	envTraceParent   = "TRACEPARENT"
	envTraceState    = "TRACESTATE"
)

// Providers holds what one CLI run reports through.
type Providers struct {
	// Tracer opens the run span and, with TraceVerbose, per-document spans.
	Tracer trace.Tracer

	// Meter creates the run and rule instruments.
	Meter metric.Meter

	// Logger writes to Config.LogOutput and correlates records with the run.
	Logger *slog.Logger

	// Shutdown exports whatever the run buffered. Only the first call does
	// any work; later calls return its result.
	Shutdown func(ctx context.Context) error
}

// Init prepares telemetry for a single run. Without an OTLP endpoint only
// the logger does any work and the tracer and meter are no-ops. With one,
// spans are batched and metrics are held until Shutdown: a run normally
// ends before the first periodic export, so Shutdown is where everything
// leaves the process. The providers are also installed globally for rules
// built without explicit options.
func Init(ctx context.Context, cfg Config) (Providers, error) {
	logger := buildLogger(cfg)

	if cfg.OTLPEndpoint == "" {
		return Providers{
			Tracer:   nooptrace.NewTracerProvider().Tracer(instrumentationName),
			Meter:    noopmetric.NewMeterProvider().Meter(instrumentationName),
			Logger:   logger,
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return Providers{}, err
	}

	filterLogger := logger
	if cfg.LogLevel > slog.LevelDebug {
		filterLogger = nil
	}

	tp, err := newTracerProvider(ctx, cfg, res, filterLogger)
	if err != nil {
		return Providers{}, err
	}

	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		return Providers{}, errors.Join(err, tp.Shutdown(ctx))
	}

	var tracerProvider trace.TracerProvider = tp
	if !cfg.TraceVerbose && len(cfg.SuppressedSpans) > 0 {
		tracerProvider = NewFilteringTracerProvider(tp, cfg.SuppressedSpans...)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(mp)

	return Providers{
		Tracer:   tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion)),
		Meter:    mp.Meter(instrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion)),
		Logger:   logger,
		Shutdown: shutdownOnce(cfg, tp, mp),
	}, nil
}

// ContextFromEnvironment joins ctx to the trace named by the TRACEPARENT
// and TRACESTATE environment variables, so that a run started by a traced
// CI job shows up under the job's span. Without TRACEPARENT ctx is
// returned as is.
func ContextFromEnvironment(ctx context.Context) context.Context {
	parent := os.Getenv(envTraceParent)
	if parent == "" {
		return ctx
	}

	carrier := propagation.MapCarrier{"traceparent": parent}
	if state := os.Getenv(envTraceState); state != "" {
		carrier["tracestate"] = state
	}

	return propagation.TraceContext{}.Extract(ctx, carrier)
}

func shutdownOnce(cfg Config, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) func(context.Context) error {
	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeoutSec * time.Second
	}

	var (
		once sync.Once
		err  error
	)

	return func(ctx context.Context) error {
		once.Do(func() {
			flushCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err = errors.Join(mp.Shutdown(flushCtx), tp.Shutdown(flushCtx))
		})

		return err
	}
}

func buildResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

// newTracerProvider exports through OTLP gRPC. Without configured headers
// the exporter reads OTEL_EXPORTER_OTLP_HEADERS itself, as does the metric
// exporter.
func newTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource, filterLogger *slog.Logger,
) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewAttributeFilter(sdktrace.NewBatchSpanProcessor(exporter), filterLogger)),
		sdktrace.WithResource(res),
	}

	return sdktrace.NewTracerProvider(append(tpOpts, samplerOptions(cfg)...)...), nil
}

// samplerOptions leaves sampling to the SDK, which honours
// OTEL_TRACES_SAMPLER, unless a ratio below one is configured and the
// variable is unset.
func samplerOptions(cfg Config) []sdktrace.TracerProviderOption {
	if os.Getenv(envTracesSampler) != "" || cfg.SampleRatio <= 0 || cfg.SampleRatio >= 1 {
		return nil
	}

	return []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func buildLogger(cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(logOutput(cfg), handlerOpts)
	} else {
		inner = slog.NewTextHandler(logOutput(cfg), handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg))
}

func logOutput(cfg Config) io.Writer {
	if cfg.LogOutput != nil {
		return cfg.LogOutput
	}

	return os.Stderr
}

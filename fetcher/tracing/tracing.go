package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/kedacore/http-fetcher/fetcher/config"
)

const serviceName = "keda-http-fetcher"

// SetupOTelSDK installs the global tracer provider and propagator. The
// returned shutdown flushes and stops the exporter.
func SetupOTelSDK(ctx context.Context, tCfg config.Tracing) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// each registered cleanup runs once, errors are joined
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	res, err := newResource(serviceName)
	if err != nil {
		return shutdown, errors.Join(err, shutdown(ctx))
	}

	otel.SetTextMapPropagator(NewPropagator())

	tracerProvider, err := newTraceProvider(ctx, res, tCfg)
	if err != nil {
		return shutdown, errors.Join(err, shutdown(ctx))
	}
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	return shutdown, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		))
}

func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(),
	)
}

func newTraceProvider(ctx context.Context, res *resource.Resource, tCfg config.Tracing) (*trace.TracerProvider, error) {
	traceExporter, err := newExporter(ctx, tCfg)
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	), nil
}

func newExporter(ctx context.Context, tCfg config.Tracing) (trace.SpanExporter, error) {
	switch strings.ToLower(tCfg.Exporter) {
	case "console":
		return stdouttrace.New()
	case "http/protobuf":
		return otlptracehttp.New(ctx)
	case "grpc":
		return otlptracegrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %q", tCfg.Exporter)
	}
}

// InstrumentTransport wraps an agent's transport so every request it sends
// gets a client span and carries the trace context to the origin.
func InstrumentTransport(rt http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(rt,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "fetch " + r.Method
		}),
	)
}

package tracing

import (
	"context"

	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type TracingConfig struct {
	Enabled        bool
	Endpoint       string
	ErrorHandler   func(error)
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

type logger interface {
	Println(v ...interface{})
}

// Instrument installs the global tracer provider. When tracing is disabled a
// noop provider is installed so hooks can always start spans.
func Instrument(config TracingConfig, l logger) (func(), error) {
	if config.ErrorHandler != nil {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(config.ErrorHandler))
	}

	if !config.Enabled {
		l.Println("Tracing disabled, configuring noop tracing provider")
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func() {}, nil
	}

	ctx := context.Background()

	otlpOptions := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		otlpOptions = append(otlpOptions, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(otlpOptions...))
	if err != nil {
		return nil, err
	}

	attributes := []attribute.KeyValue{attribute.String("service.name", config.ServiceName)}
	if config.ServiceVersion != "" {
		attributes = append(attributes, attribute.String("service.version", config.ServiceVersion))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attributes...))
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)

	l.Println("Tracing enabled, exporting spans to", config.Endpoint)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		ot.OT{},
	))

	return func() {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			l.Println("failed to stop tracer", err)
		}
	}, nil
}

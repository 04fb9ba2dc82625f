package app

import (
	"context"
	"net/http"

	"github.com/nuetzliches/micro/internal/schema"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// initTracing reads the trace.* keys from the frozen config namespace and
// installs an OTLP/HTTP trace pipeline. The returned function shuts the
// provider down, flushing pending spans.
func initTracing(ctx context.Context, cfg *schema.Config, onError func(error)) (func(context.Context) error, error) {
	opts := make([]otlptracehttp.Option, 0, 2)
	if collector, ok := cfg.GetString("trace.collector"); ok && collector != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(collector))
	}
	if insecure, ok := cfg.GetBool("trace.insecure"); ok && insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	serviceName := "micro"
	if name, ok := cfg.GetString("trace.service_name"); ok && name != "" {
		serviceName = name
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if onError != nil {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			onError(err)
		}))
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func wrapTracingHandler(name string, h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, name)
}

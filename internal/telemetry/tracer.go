package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/baharkarakas/point-ledger/internal/config"
)

type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs an OTLP/HTTP tracer provider when an endpoint is configured.
// Without one the global no-op provider stays in place.
func Init(ctx context.Context, cfg config.Config) (Shutdown, error) {
	if cfg.OTLPEndpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(stripScheme(cfg.OTLPEndpoint)),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Env),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// WithEndpoint wants host:port, the env var is often a URL.
func stripScheme(endpoint string) string {
	for _, p := range []string{"http://", "https://"} {
		endpoint = strings.TrimPrefix(endpoint, p)
	}
	return strings.TrimSuffix(endpoint, "/")
}

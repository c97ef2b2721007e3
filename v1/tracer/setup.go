package tracer

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls the tracer provider built by NewTracer.
type Config struct {
	// ServiceName identifies this process in exported traces.
	ServiceName string `yaml:"service_name" env:"TRACER_SERVICE_NAME"`

	// AppEnv tags every span with the deployment environment.
	AppEnv string `yaml:"app_env" env:"APP_ENV"`

	// EnableExport ships spans to the OTLP HTTP endpoint configured via
	// the standard OTEL_EXPORTER_OTLP_* variables. When disabled, spans
	// stay in-process, which is what local development and tests want.
	EnableExport bool `yaml:"enable_export" env:"TRACER_ENABLE_EXPORT"`
}

// NewConfig reads from environment variables.
func NewConfig() Config {
	name := os.Getenv("TRACER_SERVICE_NAME")
	if name == "" {
		name = "vecstore"
	}
	return Config{
		ServiceName:  name,
		AppEnv:       os.Getenv("APP_ENV"),
		EnableExport: os.Getenv("TRACER_ENABLE_EXPORT") == "true",
	}
}

// Tracer owns the OpenTelemetry tracer provider and hands out tracers
// for instrumenting stores.
type Tracer struct {
	provider *sdktrace.TracerProvider
}

// NewTracer sets up the tracer provider, registers it globally and
// configures W3C trace context propagation.
func NewTracer(cfg Config) (*Tracer, error) {
	var options []sdktrace.TracerProviderOption

	if cfg.EnableExport {
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
		if err != nil {
			return nil, fmt.Errorf("tracer: create exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
	}

	options = append(options, sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: tp}, nil
}

// Tracer returns a named tracer, suitable for store.WithTracer.
func (t *Tracer) Tracer(name string) trace.Tracer {
	return t.provider.Tracer(name)
}

// Shutdown flushes pending spans and releases exporter resources.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

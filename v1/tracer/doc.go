// Package tracer configures OpenTelemetry tracing for vector store
// operations.
//
// NewTracer builds a tracer provider, registers it globally and sets up
// W3C trace context propagation. When export is enabled, spans ship to
// the OTLP HTTP endpoint configured through the standard
// OTEL_EXPORTER_OTLP_* environment variables; otherwise the provider
// stays in-process, which suits tests and local development.
//
// # Usage
//
//	t, err := tracer.NewTracer(tracer.NewConfig())
//	if err != nil {
//	    ...
//	}
//	defer t.Shutdown(ctx)
//
//	s, err := store.New(cfg, store.WithTracer(t.Tracer("vecstore")))
//
// Every store operation then produces a span named after the operation,
// with the provider, collection and error status attached as
// attributes.
//
// # Environment variables
//
//   - TRACER_SERVICE_NAME: service name on exported spans (default
//     "vecstore")
//   - APP_ENV: deployment environment attribute
//   - TRACER_ENABLE_EXPORT: "true" enables the OTLP exporter
//
// # Dependency Injection (Fx)
//
// FXModule provides *Tracer, binds a trace.Tracer consumed by the store
// module and flushes spans on shutdown.
package tracer

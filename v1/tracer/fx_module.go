package tracer

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// FXModule provides the tracer to an fx application and binds a
// trace.Tracer for the store module, so included alongside
// store.FXModule every store operation runs inside a span.
//
// Usage:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    store.FXModule,
//	    // other modules...
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewConfig,
		NewTracer,

		func(t *Tracer) trace.Tracer { return t.Tracer("vecstore") },
	),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle flushes pending spans on shutdown.
func registerLifecycle(lc fx.Lifecycle, t *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return t.Shutdown(ctx)
		},
	})
}

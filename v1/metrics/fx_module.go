package metrics

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// FXModule provides the metrics registry, binds the store observer and
// runs the /metrics HTTP server for the lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    metrics.FXModule,
//	    store.FXModule,
//	    // other modules...
//	)
//
// The store module picks up the provided vectordb.Observer
// automatically, so including both modules is all it takes to get
// per-operation counters and latency histograms.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewConfig,
		NewMetrics,

		// Expose the operation observer under the interface the store
		// factory consumes.
		func(m *Metrics) vectordb.Observer { return m.Observer },
	),
	fx.Invoke(registerLifecycle),
)

// Params groups the lifecycle dependencies.
type Params struct {
	fx.In

	Metrics *Metrics
	Logger  *zap.Logger `optional:"true"`
}

func registerLifecycle(lc fx.Lifecycle, p Params) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting metrics server",
					zap.String("address", p.Metrics.Server.Addr))

				if err := p.Metrics.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("metrics server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return p.Metrics.Server.Shutdown(ctx)
		},
	})
}

package store

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// FXModule provides a vectordb.Store built by the factory to an fx
// application.
//
// Usage:
//
//	app := fx.New(
//	    store.FXModule,
//	    fx.Provide(store.NewConfigFromEnv),
//	)
var FXModule = fx.Module("store",
	fx.Provide(NewWithDI),
	fx.Invoke(registerLifecycle),
)

// Params groups the dependencies needed to build a store.
type Params struct {
	fx.In

	Config   *Config
	Logger   *zap.Logger       `optional:"true"`
	Embedder vectordb.Embedder `optional:"true"`
	Observer vectordb.Observer `optional:"true"`
	Tracer   trace.Tracer      `optional:"true"`
}

// NewWithDI creates a store from injected dependencies.
func NewWithDI(p Params) (vectordb.Store, error) {
	opts := []Option{}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Embedder != nil {
		opts = append(opts, WithEmbedder(p.Embedder))
	}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	if p.Tracer != nil {
		opts = append(opts, WithTracer(p.Tracer))
	}
	return New(p.Config, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s vectordb.Store) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
}

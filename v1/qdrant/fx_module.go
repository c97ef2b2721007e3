package qdrant

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// FXModule provides the Qdrant store to an fx application.
//
// Usage:
//
//	app := fx.New(
//	    qdrant.FXModule,
//	    fx.Provide(func() *qdrant.Config {
//	        return qdrant.FromEndpoint("localhost", 6334)
//	    }),
//	)
var FXModule = fx.Module("qdrant",
	fx.Provide(NewWithDI),
	fx.Invoke(registerLifecycle),
)

// Params groups the dependencies needed to create a Store.
type Params struct {
	fx.In

	Config   *Config
	Logger   *zap.Logger       `optional:"true"`
	Embedder vectordb.Embedder `optional:"true"`
}

// NewWithDI creates a Store from injected dependencies.
func NewWithDI(p Params) (*Store, error) {
	opts := []Option{}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Embedder != nil {
		opts = append(opts, WithEmbedder(p.Embedder))
	}
	return New(p.Config, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
}

package backup

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides the Snapshotter to an fx application.
//
// Usage:
//
//	app := fx.New(
//	    backup.FXModule,
//	    fx.Provide(backup.NewConfigFromEnv),
//	)
var FXModule = fx.Module("backup",
	fx.Provide(NewWithDI),
	fx.Invoke(registerLifecycle),
)

// Params groups the dependencies needed to create a Snapshotter.
type Params struct {
	fx.In

	Config *Config
	Logger *zap.Logger `optional:"true"`
}

// NewWithDI creates a Snapshotter from injected dependencies.
func NewWithDI(p Params) (*Snapshotter, error) {
	opts := []Option{}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	return New(p.Config, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Snapshotter) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
}

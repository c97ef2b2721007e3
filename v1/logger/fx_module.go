package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides a *zap.Logger to an fx application. Every other
// module in this library takes the logger as an optional dependency,
// so including this module lights up logging everywhere at once.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    // other modules...
//	)
//
// The configuration comes from environment variables (NewConfig);
// override it by providing your own Config.
var FXModule = fx.Module("logger",
	fx.Provide(
		NewConfig,
		NewLogger,
	),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle flushes buffered log entries on shutdown.
func registerLifecycle(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync regularly fails on stderr; nothing actionable.
			_ = log.Sync()
			return nil
		},
	})
}

package embedding

import (
	"context"

	"go.uber.org/fx"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// FXModule wires the embedding system into Fx.
//
// It provides:
//   - Config                 (NewConfig)
//   - *Client                (NewClient)
//   - vectordb.Embedder      (*Client, via interface binding)
//   - Lifecycle hook         (RegisterEmbeddingLifecycle)
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewConfig, // -> *Config
		NewClient, // -> *Client

		// Bind *Client as the vectordb.Embedder consumed by the
		// store adapters' optional DI parameter.
		func(c *Client) vectordb.Embedder { return c },
	),

	fx.Invoke(RegisterEmbeddingLifecycle),
)

// -------------------------------------------------------
// Lifecycle hook
// -------------------------------------------------------

// RegisterEmbeddingLifecycle ensures that the Client (and its provider)
// are properly cleaned up on application shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}

// Package embedding provides a unified, high-level API for computing text
// embeddings through an OpenAI-compatible inference service.
//
// # Overview
//
// The package exposes a single public entrypoint, Client, which hides all
// low-level HTTP details, endpoint paths, and authentication.
//
// A client is constructed using:
//
//	client, err := embedding.NewClient(cfg)
//
// Once created, the client can generate embeddings via:
//
//	vectors, err := client.Embed(ctx, []string{"a", "b", "c"})
//
// Inputs larger than the configured batch size are split transparently into
// multiple sequential requests and the results concatenated in order.
//
// Client implements vectordb.Embedder, so it can be passed straight into any
// store adapter:
//
//	store, err := qdrant.New(cfg, qdrant.WithEmbedder(client))
//
// # Configuration
//
// Configuration is sourced from environment variables and constructed by:
//
//	cfg := embedding.NewConfig()
//
// Required variables:
//
//   - EMBEDDING_ENDPOINT
//     Base URL of the inference service (no trailing path or slash).
//
//   - EMBEDDING_MODEL
//     Model identifier forwarded in every request.
//
// Optional variables:
//
//   - EMBEDDING_API_KEY
//     Bearer token for authentication. Omitted when empty.
//
//   - EMBEDDING_HTTP_TIMEOUT_SECONDS
//     Request timeout (default: 30 seconds).
//
//   - EMBEDDING_MAX_BATCH
//     Maximum texts per request (default: 64).
//
// Configuration correctness can be verified via:
//
//	if err := cfg.Validate(); err != nil { ... }
//
// # Dependency Injection (Fx)
//
// A ready-to-use Fx module is provided:
//
//	embedding.FXModule
//
// which supplies:
//
//   - *embedding.Config
//   - *embedding.Client
//   - vectordb.Embedder (bound to *Client)
//
// and registers a lifecycle hook to clean up HTTP resources on shutdown.
//
// # Design Notes
//
//   - Only a single provider implementation exists (inferenceProvider). It is
//     unexported on purpose to keep all endpoint-level complexity internal.
//
//   - The service is expected to speak the OpenAI /embeddings wire format:
//     a JSON body {"model": ..., "input": [...]} answered with a data array
//     carrying one embedding per input, in input order.
//
//   - The Client exposes a stable, minimal API surface (Embed, Model, Close)
//     with all routing logic, JSON shapes, and batching handled internally.
package embedding

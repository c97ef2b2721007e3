package embedding

import (
	"context"
	"fmt"
)

// Client computes embeddings against an OpenAI-compatible inference
// service and implements [vectordb.Embedder], so it plugs directly
// into any store constructor's WithEmbedder option.
//
// It hides all provider details (inference endpoints, HTTP, etc.)
// from the application layer.
type Client struct {
	cfg      *Config
	provider *inferenceProvider
}

// NewClient constructs a Client from Config.
// It validates the config and internally constructs the inference provider.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	p, err := newInferenceProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return &Client{cfg: cfg, provider: p}, nil
}

// Embed computes one embedding per text, splitting oversized inputs
// into batches transparently.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := c.cfg.MaxBatch
	if batch <= 0 {
		batch = 64
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := start + batch
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.provider.create(ctx, c.cfg.Model, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Model reports the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Close releases any internal resources used by the provider.
// Currently a no-op; kept for lifecycle symmetry.
func (c *Client) Close() error { return nil }

package qdrant

import (
	"context"
	"fmt"
	"sync"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   QDRANT STORE
// ──────────────────────────────────────────────────────────────
//
// This file defines the store shell around the official Qdrant Go
// client: configuration, lazy connection setup and lifecycle. The
// vectordb.Store operations live in operations.go, filter translation
// in filters.go and payload conversion in converter.go.
//

const (
	providerName     = "qdrant"
	defaultBatchSize = 200 // chunk size for batch upserts
)

// Store implements [vectordb.Store] against a Qdrant server.
//
// The gRPC client is constructed lazily on first use, so building a
// Store never touches the network; configuration mistakes surface as
// ConfigError from New, connectivity problems as BackendError from the
// first operation.
type Store struct {
	cfg      *Config
	embedder vectordb.Embedder
	logger   *zap.Logger

	mu  sync.Mutex
	api *qdrant.Client
}

// Option customizes a Store.
type Option func(*Store)

// WithEmbedder attaches an embedder used to vectorize documents and
// queries that arrive without embeddings.
func WithEmbedder(e vectordb.Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger attaches a logger; defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New validates the configuration and returns a Store. No connection
// is made until the first operation.
func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	s := &Store{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Provider() string { return providerName }

// client returns the SDK client, connecting and health-checking on
// first use.
func (s *Store) client(ctx context.Context) (*qdrant.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}

	s.logger.Info("connecting to qdrant",
		zap.String("endpoint", s.cfg.Endpoint),
		zap.Int("port", s.cfg.Port))

	api, err := qdrant.NewClient(&qdrant.Config{
		Host:                   s.cfg.Endpoint,
		Port:                   s.cfg.Port,
		APIKey:                 s.cfg.ApiKey,
		SkipCompatibilityCheck: !s.cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "connect", err)
	}

	if err := s.healthCheck(ctx, api); err != nil {
		return nil, err
	}

	s.api = api
	return s.api, nil
}

// healthCheck verifies the availability of the Qdrant service.
// Lightweight and fast, also suitable for readiness probes.
func (s *Store) healthCheck(ctx context.Context, api *qdrant.Client) error {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := api.HealthCheck(ctx)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "health_check",
			fmt.Errorf("%s:%d: %w", s.cfg.Endpoint, s.cfg.Port, err))
	}

	s.logger.Info("qdrant health check passed",
		zap.String("title", resp.GetTitle()),
		zap.String("version", resp.GetVersion()))
	return nil
}

// Close shuts down the gRPC connection if one was established.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return nil
	}
	err := s.api.Close()
	s.api = nil
	return err
}

package milvus

import (
	"context"
	"sync"
	"time"

	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   MILVUS STORE
// ──────────────────────────────────────────────────────────────
//
// Milvus filters with a boolean expression language evaluated inside
// the engine, and the segment-level execution has no cheap way to
// re-check candidates afterwards. This adapter therefore compiles the
// whole predicate list or refuses with a TranslationError; there is no
// client-side fallback path. Every operator in the algebra except none
// currently maps onto the expression language, so refusals only occur
// for untranslatable values (wildcards inside string operators, mixed
// membership lists, non-scalar comparisons).
//

const (
	providerName     = "milvus"
	defaultBatchSize = 1000 // rows per insert request
)

// Store implements [vectordb.Store] against a Milvus server.
//
// The gRPC client is constructed lazily on first use, so building a
// Store never touches the network.
type Store struct {
	cfg      *Config
	embedder vectordb.Embedder
	logger   *zap.Logger

	mu  sync.Mutex
	api *milvusclient.Client
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

// client returns the SDK client, connecting on first use.
func (s *Store) client(ctx context.Context) (*milvusclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("connecting to milvus", zap.String("address", s.cfg.Address))

	api, err := milvusclient.New(connectCtx, &milvusclient.ClientConfig{
		Address:  s.cfg.Address,
		Username: s.cfg.Username,
		Password: s.cfg.Password,
		DBName:   s.cfg.DBName,
	})
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "connect", err)
	}

	s.api = api
	return s.api, nil
}

// Close shuts down the gRPC connection if one was established.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return nil
	}
	err := s.api.Close(context.Background())
	s.api = nil
	return err
}

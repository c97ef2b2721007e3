package weaviate

import (
	"context"
	"fmt"
	"sync"
	"time"

	wv "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   WEAVIATE STORE
// ──────────────────────────────────────────────────────────────
//
// Collections map onto Weaviate classes with a fixed property layout:
// the document ID, the content, and a JSON blob carrying the full
// metadata. Individual metadata keys are additionally flattened into
// class properties so equality filters can push down into the engine;
// the blob stays authoritative when rebuilding documents.
//

const (
	providerName     = "weaviate"
	defaultBatchSize = 100
)

// Store implements [vectordb.Store] against a Weaviate server.
//
// The client is constructed lazily on first use, with a readiness
// check, so building a Store never touches the network.
type Store struct {
	cfg      *Config
	embedder vectordb.Embedder
	logger   *zap.Logger

	mu  sync.Mutex
	api *wv.Client
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
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
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

// client returns the SDK client, connecting and checking readiness on
// first use.
func (s *Store) client(ctx context.Context) (*wv.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}

	wcfg := wv.Config{
		Host:   s.cfg.Host,
		Scheme: s.cfg.Scheme,
	}
	if s.cfg.ApiKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: s.cfg.ApiKey}
	}

	s.logger.Info("connecting to weaviate",
		zap.String("host", s.cfg.Host),
		zap.String("scheme", s.cfg.Scheme))

	api, err := wv.NewClient(wcfg)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "connect", err)
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ready, err := api.Misc().ReadyChecker().Do(readyCtx)
	if err != nil || !ready {
		return nil, vectordb.WrapBackendError(providerName, "ready_check",
			errNotReady(s.cfg.Host, err))
	}

	s.api = api
	return s.api, nil
}

func errNotReady(host string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", host, err)
	}
	return fmt.Errorf("%s: not ready", host)
}

// Close drops the cached client; the REST client holds no persistent
// connection worth tearing down.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = nil
	return nil
}

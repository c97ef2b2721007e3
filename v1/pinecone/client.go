package pinecone

import (
	"context"
	"sync"

	pc "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   PINECONE STORE
// ──────────────────────────────────────────────────────────────
//
// Pinecone has no notion of multiple collections inside an index, but
// it has namespaces, which are isolated and created on first write.
// The store maps one collection onto one namespace of a single
// serverless index. The index itself is created by the first
// CreateCollection call.
//

const (
	providerName     = "pinecone"
	defaultBatchSize = 100 // Pinecone's recommended upsert batch size
)

// Store implements [vectordb.Store] against a Pinecone serverless
// index, one namespace per collection.
//
// The REST client is constructed lazily on first use. Index host
// lookup happens once and is cached; per-namespace connections are
// cached as well.
type Store struct {
	cfg      *Config
	embedder vectordb.Embedder
	logger   *zap.Logger

	mu    sync.Mutex
	api   *pc.Client
	host  string
	conns map[string]*pc.IndexConnection
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
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	s := &Store{
		cfg:    cfg,
		logger: zap.NewNop(),
		conns:  make(map[string]*pc.IndexConnection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Provider() string { return providerName }

// client returns the SDK client, constructing it on first use.
func (s *Store) client() (*pc.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientLocked()
}

func (s *Store) clientLocked() (*pc.Client, error) {
	if s.api != nil {
		return s.api, nil
	}
	api, err := pc.NewClient(pc.NewClientParams{ApiKey: s.cfg.ApiKey})
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "connect", err)
	}
	s.logger.Info("pinecone client initialized", zap.String("index", s.cfg.IndexName))
	s.api = api
	return s.api, nil
}

// namespace returns a cached data-plane connection scoped to the given
// namespace, resolving the index host on first use.
func (s *Store) namespace(ctx context.Context, ns string) (*pc.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.conns[ns]; ok {
		return conn, nil
	}

	api, err := s.clientLocked()
	if err != nil {
		return nil, err
	}

	if s.host == "" {
		idx, err := api.DescribeIndex(ctx, s.cfg.IndexName)
		if err != nil {
			return nil, vectordb.WrapBackendError(providerName, "describe_index", err)
		}
		s.host = idx.Host
	}

	conn, err := api.Index(pc.NewIndexConnParams{Host: s.host, Namespace: ns})
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "index_connection", err)
	}
	s.conns[ns] = conn
	return conn, nil
}

// invalidateHost drops the cached host and connections, forcing a
// fresh DescribeIndex on the next call. Used after index creation.
func (s *Store) invalidateHost() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = ""
	s.conns = make(map[string]*pc.IndexConnection)
}

// Close releases the cached data-plane connections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for ns, conn := range s.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.conns, ns)
	}
	s.api = nil
	s.host = ""
	return firstErr
}

package store

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/localstore"
	"github.com/oneiric-ai/vecstore/v1/milvus"
	"github.com/oneiric-ai/vecstore/v1/pinecone"
	"github.com/oneiric-ai/vecstore/v1/qdrant"
	"github.com/oneiric-ai/vecstore/v1/sqlitestore"
	"github.com/oneiric-ai/vecstore/v1/vectordb"
	"github.com/oneiric-ai/vecstore/v1/weaviate"
)

// Option customizes the store built by New.
type Option func(*settings)

type settings struct {
	embedder vectordb.Embedder
	logger   *zap.Logger
	observer vectordb.Observer
	tracer   trace.Tracer
}

// WithEmbedder supplies the text embedder passed through to the backend.
func WithEmbedder(e vectordb.Embedder) Option {
	return func(s *settings) { s.embedder = e }
}

// WithLogger supplies the logger passed through to the backend.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithObserver wraps the store so every operation is reported to the
// observer (metrics, logging, anything implementing the interface).
func WithObserver(o vectordb.Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithTracer wraps the store so every operation runs inside a span.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) { s.tracer = t }
}

// New builds the vector store selected by cfg.Provider.
//
// Construction only validates configuration; remote backends connect
// lazily on first use. When an observer or tracer option is given the
// returned store is wrapped with instrumentation.
func New(cfg *Config, opts ...Option) (vectordb.Store, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	backend, err := build(cfg, s)
	if err != nil {
		return nil, err
	}

	if s.observer != nil || s.tracer != nil {
		return vectordb.Instrument(backend, s.observer, s.tracer), nil
	}
	return backend, nil
}

func build(cfg *Config, s settings) (vectordb.Store, error) {
	if _, err := cfg.backend(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderLocal:
		opts := []localstore.Option{}
		if s.embedder != nil {
			opts = append(opts, localstore.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, localstore.WithLogger(s.logger))
		}
		return localstore.New(cfg.Local, opts...)

	case ProviderSQLite:
		opts := []sqlitestore.Option{}
		if s.embedder != nil {
			opts = append(opts, sqlitestore.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, sqlitestore.WithLogger(s.logger))
		}
		return sqlitestore.New(cfg.SQLite, opts...)

	case ProviderQdrant:
		opts := []qdrant.Option{}
		if s.embedder != nil {
			opts = append(opts, qdrant.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, qdrant.WithLogger(s.logger))
		}
		return qdrant.New(cfg.Qdrant, opts...)

	case ProviderPinecone:
		opts := []pinecone.Option{}
		if s.embedder != nil {
			opts = append(opts, pinecone.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, pinecone.WithLogger(s.logger))
		}
		return pinecone.New(cfg.Pinecone, opts...)

	case ProviderMilvus:
		opts := []milvus.Option{}
		if s.embedder != nil {
			opts = append(opts, milvus.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, milvus.WithLogger(s.logger))
		}
		return milvus.New(cfg.Milvus, opts...)

	case ProviderWeaviate:
		opts := []weaviate.Option{}
		if s.embedder != nil {
			opts = append(opts, weaviate.WithEmbedder(s.embedder))
		}
		if s.logger != nil {
			opts = append(opts, weaviate.WithLogger(s.logger))
		}
		return weaviate.New(cfg.Weaviate, opts...)

	default:
		// backend() already rejected unknown providers.
		return nil, vectordb.NewConfigError("store", "provider", "unknown provider "+string(cfg.Provider))
	}
}

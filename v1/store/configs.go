package store

import (
	"os"
	"strconv"
	"time"

	"github.com/oneiric-ai/vecstore/v1/localstore"
	"github.com/oneiric-ai/vecstore/v1/milvus"
	"github.com/oneiric-ai/vecstore/v1/pinecone"
	"github.com/oneiric-ai/vecstore/v1/qdrant"
	"github.com/oneiric-ai/vecstore/v1/sqlitestore"
	"github.com/oneiric-ai/vecstore/v1/vectordb"
	"github.com/oneiric-ai/vecstore/v1/weaviate"
)

// Provider names a supported vector store backend.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderSQLite   Provider = "sqlite"
	ProviderQdrant   Provider = "qdrant"
	ProviderPinecone Provider = "pinecone"
	ProviderMilvus   Provider = "milvus"
	ProviderWeaviate Provider = "weaviate"
)

// Config is the discriminated configuration consumed by New. Provider
// selects the backend, and exactly the matching sub-config must be set.
//
// Example:
//
//	cfg := &store.Config{
//	    Provider: store.ProviderQdrant,
//	    Qdrant:   qdrant.FromEndpoint("localhost"),
//	}
type Config struct {
	Provider Provider `yaml:"provider" env:"VECTORSTORE_PROVIDER"`

	Local    *localstore.Config  `yaml:"local"`
	SQLite   *sqlitestore.Config `yaml:"sqlite"`
	Qdrant   *qdrant.Config      `yaml:"qdrant"`
	Pinecone *pinecone.Config    `yaml:"pinecone"`
	Milvus   *milvus.Config      `yaml:"milvus"`
	Weaviate *weaviate.Config    `yaml:"weaviate"`
}

// NewConfigFromEnv reads VECTORSTORE_PROVIDER plus the selected
// backend's own environment variables. Unset variables fall back to the
// backend's defaults; a missing provider selects the local store.
func NewConfigFromEnv() *Config {
	cfg := &Config{Provider: Provider(os.Getenv("VECTORSTORE_PROVIDER"))}
	if cfg.Provider == "" {
		cfg.Provider = ProviderLocal
	}

	switch cfg.Provider {
	case ProviderLocal:
		local := localstore.DefaultConfig()
		if v := os.Getenv("LOCALSTORE_PATH"); v != "" {
			local.Path = v
		}
		cfg.Local = local

	case ProviderSQLite:
		sq := sqlitestore.DefaultConfig()
		if v := os.Getenv("SQLITESTORE_PATH"); v != "" {
			sq.Path = v
		}
		cfg.SQLite = sq

	case ProviderQdrant:
		qd := qdrant.DefaultConfig()
		if v := os.Getenv("QDRANT_ENDPOINT"); v != "" {
			qd.Endpoint = v
		}
		if v := os.Getenv("QDRANT_PORT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				qd.Port = n
			}
		}
		qd.ApiKey = os.Getenv("QDRANT_API_KEY")
		cfg.Qdrant = qd

	case ProviderPinecone:
		pc := pinecone.DefaultConfig()
		pc.ApiKey = os.Getenv("PINECONE_API_KEY")
		pc.IndexName = os.Getenv("PINECONE_INDEX")
		if v := os.Getenv("PINECONE_CLOUD"); v != "" {
			pc.Cloud = v
		}
		if v := os.Getenv("PINECONE_REGION"); v != "" {
			pc.Region = v
		}
		cfg.Pinecone = pc

	case ProviderMilvus:
		mv := milvus.DefaultConfig()
		if v := os.Getenv("MILVUS_ADDRESS"); v != "" {
			mv.Address = v
		}
		mv.Username = os.Getenv("MILVUS_USERNAME")
		mv.Password = os.Getenv("MILVUS_PASSWORD")
		mv.DBName = os.Getenv("MILVUS_DB_NAME")
		if v := os.Getenv("MILVUS_TIMEOUT_SECONDS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				mv.Timeout = time.Duration(n) * time.Second
			}
		}
		cfg.Milvus = mv

	case ProviderWeaviate:
		wv := weaviate.DefaultConfig()
		if v := os.Getenv("WEAVIATE_HOST"); v != "" {
			wv.Host = v
		}
		if v := os.Getenv("WEAVIATE_SCHEME"); v != "" {
			wv.Scheme = v
		}
		wv.ApiKey = os.Getenv("WEAVIATE_API_KEY")
		cfg.Weaviate = wv
	}

	return cfg
}

// Validate checks the provider discriminator and delegates to the
// selected backend's own validation.
func (c *Config) Validate() error {
	backend, err := c.backend()
	if err != nil {
		return err
	}
	return backend.Validate()
}

type validator interface {
	Validate() error
}

// backend resolves the sub-config selected by Provider.
func (c *Config) backend() (validator, error) {
	missing := func(field string) error {
		return vectordb.NewConfigError("store", field, "missing for provider "+string(c.Provider))
	}

	switch c.Provider {
	case ProviderLocal:
		if c.Local == nil {
			return nil, missing("local")
		}
		return noopValidator{}, nil
	case ProviderSQLite:
		if c.SQLite == nil {
			return nil, missing("sqlite")
		}
		return noopValidator{}, nil
	case ProviderQdrant:
		if c.Qdrant == nil {
			return nil, missing("qdrant")
		}
		return c.Qdrant, nil
	case ProviderPinecone:
		if c.Pinecone == nil {
			return nil, missing("pinecone")
		}
		return c.Pinecone, nil
	case ProviderMilvus:
		if c.Milvus == nil {
			return nil, missing("milvus")
		}
		return c.Milvus, nil
	case ProviderWeaviate:
		if c.Weaviate == nil {
			return nil, missing("weaviate")
		}
		return c.Weaviate, nil
	default:
		return nil, vectordb.NewConfigError("store", "provider", "unknown provider "+string(c.Provider))
	}
}

// noopValidator covers backends whose configs have no invalid states.
type noopValidator struct{}

func (noopValidator) Validate() error { return nil }

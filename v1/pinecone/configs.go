package pinecone

import "github.com/oneiric-ai/vecstore/v1/vectordb"

// Config holds connection and behavior settings for the Pinecone store.
//
// Example (builder style):
//
//	cfg := pinecone.FromIndex("documents").
//	    WithApiKey(os.Getenv("PINECONE_API_KEY")).
//	    WithRegion("eu-west-1")
type Config struct {
	// ApiKey authenticates against the Pinecone control and data planes.
	ApiKey string `yaml:"api_key" env:"PINECONE_API_KEY"`

	// IndexName is the serverless index backing the store. Collections
	// map onto namespaces within this index.
	IndexName string `yaml:"index_name" env:"PINECONE_INDEX"`

	// Cloud provider for serverless index creation. Defaults to "aws".
	Cloud string `yaml:"cloud" env:"PINECONE_CLOUD"`

	// Region for serverless index creation. Defaults to "us-east-1".
	Region string `yaml:"region" env:"PINECONE_REGION"`

	// BatchSize caps vectors per upsert request.
	BatchSize int `yaml:"batch_size" env:"PINECONE_BATCH_SIZE"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Cloud:     "aws",
		Region:    "us-east-1",
		BatchSize: defaultBatchSize,
	}
}

// FromIndex returns a default config pre-filled with an index name.
func FromIndex(name string) *Config {
	cfg := DefaultConfig()
	cfg.IndexName = name
	return cfg
}

// Validate reports configuration problems before any connection is
// attempted.
func (c *Config) Validate() error {
	if c.ApiKey == "" {
		return vectordb.NewConfigError(providerName, "api_key", "missing")
	}
	if c.IndexName == "" {
		return vectordb.NewConfigError(providerName, "index_name", "missing")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithCloud(cloud string) *Config {
	c.Cloud = cloud
	return c
}

func (c *Config) WithRegion(region string) *Config {
	c.Region = region
	return c
}

func (c *Config) WithBatchSize(n int) *Config {
	c.BatchSize = n
	return c
}

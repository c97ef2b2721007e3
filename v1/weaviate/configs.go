package weaviate

import (
	"time"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// Config holds connection and behavior settings for the Weaviate store.
//
// Example (builder style):
//
//	cfg := weaviate.FromHost("localhost:8080").
//	    WithApiKey(os.Getenv("WEAVIATE_API_KEY"))
type Config struct {
	// Host of the Weaviate server including port, e.g. "localhost:8080".
	Host string `yaml:"host" env:"WEAVIATE_HOST"`

	// Scheme is "http" or "https". Defaults to "http".
	Scheme string `yaml:"scheme" env:"WEAVIATE_SCHEME"`

	// ApiKey authenticates against secured deployments; empty means
	// anonymous access.
	ApiKey string `yaml:"api_key" env:"WEAVIATE_API_KEY"`

	// Timeout bounds the initial readiness check.
	Timeout time.Duration `yaml:"timeout" env:"WEAVIATE_TIMEOUT"`

	// BatchSize caps objects per batch request.
	BatchSize int `yaml:"batch_size" env:"WEAVIATE_BATCH_SIZE"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Host:      "localhost:8080",
		Scheme:    "http",
		Timeout:   5 * time.Second,
		BatchSize: defaultBatchSize,
	}
}

// FromHost returns a default config pre-filled with a host.
func FromHost(host string) *Config {
	cfg := DefaultConfig()
	cfg.Host = host
	return cfg
}

// Validate reports configuration problems before any connection is
// attempted.
func (c *Config) Validate() error {
	if c.Host == "" {
		return vectordb.NewConfigError(providerName, "host", "missing")
	}
	if c.Scheme != "" && c.Scheme != "http" && c.Scheme != "https" {
		return vectordb.NewConfigError(providerName, "scheme", "must be http or https")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithScheme(scheme string) *Config {
	c.Scheme = scheme
	return c
}

func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithBatchSize(n int) *Config {
	c.BatchSize = n
	return c
}

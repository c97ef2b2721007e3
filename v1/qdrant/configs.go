package qdrant

import (
	"time"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// Config holds connection and behavior settings for the Qdrant store.
//
// It is intentionally minimal, readable, and easy to override from environment
// variables, YAML, or programmatically via helper methods.
//
// Example (programmatic):
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Endpoint = "localhost"
//	cfg.ApiKey = os.Getenv("QDRANT_API_KEY")
//	cfg.Timeout = 10 * time.Second
//
// Example (builder style):
//
//	cfg := qdrant.FromEndpoint("localhost").
//	    WithApiKey(os.Getenv("QDRANT_API_KEY")).
//	    WithTimeout(10 * time.Second)
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" env:"QDRANT_API_KEY"`

	// Maximum request duration before timing out.
	Timeout time.Duration `yaml:"timeout" env:"QDRANT_TIMEOUT"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" env:"QDRANT_CHECK_COMPATIBILITY"`

	// BatchSize caps documents per upsert request.
	BatchSize int `yaml:"batch_size" env:"QDRANT_BATCH_SIZE"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Port:               6334,
		Timeout:            5 * time.Second,
		CheckCompatibility: false,
		BatchSize:          defaultBatchSize,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(host string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = host
	return cfg
}

// Validate reports configuration problems before any connection is
// attempted.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return vectordb.NewConfigError(providerName, "endpoint", "missing")
	}
	if c.Port < 0 || c.Port > 65535 {
		return vectordb.NewConfigError(providerName, "port", "out of range")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithCompatibilityCheck(enabled bool) *Config {
	c.CheckCompatibility = enabled
	return c
}

func (c *Config) WithBatchSize(n int) *Config {
	c.BatchSize = n
	return c
}

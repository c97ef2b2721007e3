package milvus

import (
	"time"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// Config holds connection and behavior settings for the Milvus store.
//
// Example (builder style):
//
//	cfg := milvus.FromAddress("localhost:19530").
//	    WithAuth("root", os.Getenv("MILVUS_PASSWORD"))
type Config struct {
	// Address of the Milvus server, e.g. "localhost:19530".
	Address string `yaml:"address" env:"MILVUS_ADDRESS"`

	// Username for authenticated deployments.
	Username string `yaml:"username" env:"MILVUS_USERNAME"`

	// Password for authenticated deployments.
	Password string `yaml:"password" env:"MILVUS_PASSWORD"`

	// DBName selects a database; empty means the default database.
	DBName string `yaml:"db_name" env:"MILVUS_DB_NAME"`

	// Timeout bounds connection setup.
	Timeout time.Duration `yaml:"timeout" env:"MILVUS_TIMEOUT"`

	// BatchSize caps rows per insert request.
	BatchSize int `yaml:"batch_size" env:"MILVUS_BATCH_SIZE"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Address:   "localhost:19530",
		Timeout:   10 * time.Second,
		BatchSize: defaultBatchSize,
	}
}

// FromAddress returns a default config pre-filled with an address.
func FromAddress(addr string) *Config {
	cfg := DefaultConfig()
	cfg.Address = addr
	return cfg
}

// Validate reports configuration problems before any connection is
// attempted.
func (c *Config) Validate() error {
	if c.Address == "" {
		return vectordb.NewConfigError(providerName, "address", "missing")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithAuth(username, password string) *Config {
	c.Username = username
	c.Password = password
	return c
}

func (c *Config) WithDBName(name string) *Config {
	c.DBName = name
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

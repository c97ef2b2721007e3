package embedding

import (
	"fmt"
	"os"
	"strconv"
)

// EMBEDDING_ENDPOINT must point to the root of the OpenAI-compatible
// inference service (no /embeddings appended). The provider appends
// paths automatically, so callers only need to supply the base URL.

type Config struct {
	// Endpoint is the base URL of the inference API.
	Endpoint string

	// ApiKey authenticates against the inference API; empty disables
	// the Authorization header.
	ApiKey string

	// Model is the embedding model identifier sent with each request.
	Model string

	// HTTPTimeoutS bounds each HTTP request in seconds (default 30).
	HTTPTimeoutS int

	// MaxBatch caps texts per request; larger inputs are split
	// transparently (default 64).
	MaxBatch int
}

// NewConfig reads from environment variables.
func NewConfig() *Config {
	timeout := 30
	if v := os.Getenv("EMBEDDING_HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}
	batch := 64
	if v := os.Getenv("EMBEDDING_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			batch = n
		}
	}

	return &Config{
		Endpoint:     os.Getenv("EMBEDDING_ENDPOINT"),
		ApiKey:       os.Getenv("EMBEDDING_API_KEY"),
		Model:        os.Getenv("EMBEDDING_MODEL"),
		HTTPTimeoutS: timeout,
		MaxBatch:     batch,
	}
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_MODEL")
	}
	return nil
}

package backup

import (
	"os"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// Config holds connection settings for the snapshot bucket.
//
// Example (builder style):
//
//	cfg := backup.FromEndpoint("minio.internal:9000").
//	    WithCredentials(accessKey, secretKey).
//	    WithBucket("vector-backups")
type Config struct {
	// Endpoint of the S3-compatible service, host:port without scheme.
	Endpoint string `yaml:"endpoint" env:"BACKUP_S3_ENDPOINT"`

	// AccessKeyID for the service.
	AccessKeyID string `yaml:"access_key_id" env:"BACKUP_S3_ACCESS_KEY_ID"`

	// SecretAccessKey for the service.
	SecretAccessKey string `yaml:"secret_access_key" env:"BACKUP_S3_SECRET_ACCESS_KEY"`

	// Bucket receiving the snapshots; created on first use when absent.
	Bucket string `yaml:"bucket" env:"BACKUP_S3_BUCKET"`

	// Prefix namespaces snapshot keys within the bucket.
	Prefix string `yaml:"prefix" env:"BACKUP_S3_PREFIX"`

	// UseSSL switches the connection to HTTPS.
	UseSSL bool `yaml:"use_ssl" env:"BACKUP_S3_USE_SSL"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Bucket: "vector-backups",
		Prefix: "snapshots",
	}
}

// FromEndpoint returns a default config pre-filled with an endpoint.
func FromEndpoint(endpoint string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	return cfg
}

// NewConfigFromEnv reads from environment variables.
func NewConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("BACKUP_S3_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	cfg.AccessKeyID = os.Getenv("BACKUP_S3_ACCESS_KEY_ID")
	cfg.SecretAccessKey = os.Getenv("BACKUP_S3_SECRET_ACCESS_KEY")
	if v := os.Getenv("BACKUP_S3_BUCKET"); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv("BACKUP_S3_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	cfg.UseSSL = os.Getenv("BACKUP_S3_USE_SSL") == "true"
	return cfg
}

// Validate reports configuration problems before any connection is
// attempted.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return vectordb.NewConfigError("backup", "endpoint", "missing")
	}
	if c.Bucket == "" {
		return vectordb.NewConfigError("backup", "bucket", "missing")
	}
	return nil
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithCredentials(accessKey, secretKey string) *Config {
	c.AccessKeyID = accessKey
	c.SecretAccessKey = secretKey
	return c
}

func (c *Config) WithBucket(bucket string) *Config {
	c.Bucket = bucket
	return c
}

func (c *Config) WithPrefix(prefix string) *Config {
	c.Prefix = prefix
	return c
}

func (c *Config) WithSSL(enabled bool) *Config {
	c.UseSSL = enabled
	return c
}

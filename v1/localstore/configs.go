package localstore

// Config holds settings for the local file-backed vector store.
//
// Example (programmatic):
//
//	cfg := localstore.DefaultConfig()
//	cfg.Path = "/var/lib/myapp/vectors.json"
//
// Example (builder style):
//
//	cfg := localstore.FromPath("/var/lib/myapp/vectors.json").
//	    WithAutoPersist(false)
type Config struct {
	// Path of the JSON snapshot file. Empty keeps the store purely
	// in-memory.
	Path string `yaml:"path" env:"LOCALSTORE_PATH"`

	// AutoPersist writes the snapshot after every mutation. When
	// disabled, callers persist explicitly via Flush.
	AutoPersist bool `yaml:"auto_persist" env:"LOCALSTORE_AUTO_PERSIST"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		AutoPersist: true,
	}
}

// FromPath returns a default config pre-filled with a snapshot path.
func FromPath(path string) *Config {
	cfg := DefaultConfig()
	cfg.Path = path
	return cfg
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithAutoPersist(enabled bool) *Config {
	c.AutoPersist = enabled
	return c
}

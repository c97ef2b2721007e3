package sqlitestore

// Config holds settings for the SQLite-backed vector store.
//
// Example:
//
//	cfg := sqlitestore.FromPath("/var/lib/myapp/vectors.db")
type Config struct {
	// Path of the database file. ":memory:" opens an in-memory
	// database, which is what the tests use.
	Path string `yaml:"path" env:"SQLITESTORE_PATH"`

	// BusyTimeoutMS is the SQLite busy timeout in milliseconds.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" env:"SQLITESTORE_BUSY_TIMEOUT_MS"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Path:          "vectors.db",
		BusyTimeoutMS: 5000,
	}
}

// FromPath returns a default config pre-filled with a database path.
func FromPath(path string) *Config {
	cfg := DefaultConfig()
	cfg.Path = path
	return cfg
}

// Builder-style helpers (optional, ergonomic)
func (c *Config) WithBusyTimeout(ms int) *Config {
	c.BusyTimeoutMS = ms
	return c
}

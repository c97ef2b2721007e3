package vectordb

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all stores. Adapters wrap backend
// failures so callers can branch with errors.Is regardless of which
// backend produced them.
var (
	// ErrCollectionNotFound indicates the named collection does not exist.
	ErrCollectionNotFound = errors.New("vectordb: collection not found")

	// ErrCollectionExists indicates a create collided with an existing name.
	ErrCollectionExists = errors.New("vectordb: collection already exists")

	// ErrNotSupported indicates the store does not implement an optional
	// capability such as rename or export.
	ErrNotSupported = errors.New("vectordb: operation not supported by this backend")

	// ErrNoEmbedder indicates documents without embeddings were given to
	// a store that has no embedder configured.
	ErrNoEmbedder = errors.New("vectordb: no embedder configured")
)

// ConfigError reports an invalid or incomplete store configuration.
// It is raised at construction time, before any network activity.
type ConfigError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("vectordb: %s configuration: %s: %s", e.Provider, e.Field, e.Reason)
	}
	return fmt.Sprintf("vectordb: %s configuration: %s", e.Provider, e.Reason)
}

// NewConfigError builds a ConfigError for the given provider and field.
func NewConfigError(provider, field, reason string) *ConfigError {
	return &ConfigError{Provider: provider, Field: field, Reason: reason}
}

// TranslationError reports a predicate the backend's filter language
// cannot express and that the adapter does not post-filter.
type TranslationError struct {
	Provider  string
	Predicate Predicate
	Reason    string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("vectordb: %s cannot translate %s on %q: %s",
		e.Provider, e.Predicate.Op, e.Predicate.Key, e.Reason)
}

// BackendError wraps a failure from the underlying database client,
// tagged with the provider and the operation that failed.
type BackendError struct {
	Provider string
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("vectordb: %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// WrapBackendError tags err with provider and operation context.
// A nil err returns nil.
func WrapBackendError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Provider: provider, Op: op, Err: err}
}

// EmbeddingError wraps a failure while computing embeddings for
// documents that arrived without them.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("vectordb: embedding with %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("vectordb: embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ── Error Checking Helpers ───────────────────────────────────────────────────

// IsCollectionNotFound reports whether err is a missing-collection error.
func IsCollectionNotFound(err error) bool { return errors.Is(err, ErrCollectionNotFound) }

// IsCollectionExists reports whether err is a duplicate-collection error.
func IsCollectionExists(err error) bool { return errors.Is(err, ErrCollectionExists) }

// IsNotSupported reports whether err marks an unimplemented capability.
func IsNotSupported(err error) bool { return errors.Is(err, ErrNotSupported) }

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTranslationError reports whether err is a filter translation error.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}

// IsBackendError reports whether err came from a backend client.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// IsEmbeddingError reports whether err came from embedding generation.
func IsEmbeddingError(err error) bool {
	var ee *EmbeddingError
	return errors.As(err, &ee)
}

package vectordb

import "context"

// Store is the common interface all vector database adapters
// implement. Applications depend on this interface only, so swapping
// backends is a configuration change rather than a code change.
//
// Every search path normalizes scores to higher-is-better and runs
// threshold and pagination through [Paginate], so results behave the
// same no matter which backend serves them.
type Store interface {
	// Provider returns the short backend identifier ("qdrant",
	// "pinecone", ...) used in logs and metric labels.
	Provider() string

	// AddDocuments inserts documents, computing embeddings for any that
	// lack them when an embedder is configured. Inserts are batched per
	// backend limits and batches run sequentially.
	AddDocuments(ctx context.Context, collection string, docs []Document) error

	// UpdateDocuments overwrites documents by ID (upsert semantics on
	// backends without a distinct update).
	UpdateDocuments(ctx context.Context, collection string, docs []Document) error

	// DeleteDocuments removes documents by ID. Missing IDs are not an error.
	DeleteDocuments(ctx context.Context, collection string, ids []string) error

	// DeleteAllDocuments empties a collection without dropping it and
	// reports how many documents were removed.
	DeleteAllDocuments(ctx context.Context, collection string) (int64, error)

	// SearchDocuments embeds the query text and searches. It fails with
	// ErrNoEmbedder when no embedder is configured.
	SearchDocuments(ctx context.Context, collection, query string, opts SearchOptions) ([]SearchResult, error)

	// SearchByEmbedding searches with a caller-supplied vector.
	SearchByEmbedding(ctx context.Context, collection string, embedding []float32, opts SearchOptions) ([]SearchResult, error)

	// SearchDocumentsWithTotal is SearchDocuments plus the
	// post-threshold total, for paginated UIs.
	SearchDocumentsWithTotal(ctx context.Context, collection, query string, opts SearchOptions) (Page, error)

	// ScrollDocuments pages through a collection without a query vector.
	ScrollDocuments(ctx context.Context, collection string, req ScrollRequest) (ScrollResult, error)

	// GetDocuments fetches documents by ID. Missing IDs are skipped, so
	// the result may be shorter than the request.
	GetDocuments(ctx context.Context, collection string, ids []string) ([]Document, error)

	// CountDocuments counts documents, optionally constrained by
	// predicates evaluated with the same semantics as search filters.
	CountDocuments(ctx context.Context, collection string, predicates []Predicate, mode FilterMode) (int64, error)

	// CreateCollection creates a collection. It fails with
	// ErrCollectionExists when the name is taken.
	CreateCollection(ctx context.Context, name string, opts CreateCollectionOptions) error

	// DeleteCollection drops a collection and its documents.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)

	// GetCollectionInfo returns a collection's dimension and size. It
	// fails with ErrCollectionNotFound for unknown names.
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)

	// Close releases the backend client. The store must not be used
	// afterwards.
	Close() error
}

// ── Optional Capabilities ────────────────────────────────────────────────────
//
// Not every backend can rename, truncate or snapshot a collection.
// Stores that can expose it through these interfaces; callers type
// assert and fall back (or surface ErrNotSupported) when the store
// does not.

// CollectionRenamer renames a collection in place.
type CollectionRenamer interface {
	RenameCollection(ctx context.Context, oldName, newName string) error
}

// CollectionTruncator removes all documents but keeps the collection's
// configuration, where the backend distinguishes the two. It reports
// how many documents were removed.
type CollectionTruncator interface {
	TruncateCollection(ctx context.Context, name string) (int64, error)
}

// CollectionExporter snapshots a collection, embeddings included.
type CollectionExporter interface {
	ExportCollection(ctx context.Context, name string) (*CollectionDump, error)
}

// CollectionImporter loads a snapshot into a collection, creating it
// if needed.
type CollectionImporter interface {
	ImportCollection(ctx context.Context, dump *CollectionDump) error
}

// RenameCollection renames through the capability interface, returning
// ErrNotSupported when the store lacks it.
func RenameCollection(ctx context.Context, s Store, oldName, newName string) error {
	if r, ok := s.(CollectionRenamer); ok {
		return r.RenameCollection(ctx, oldName, newName)
	}
	return ErrNotSupported
}

// TruncateCollection truncates through the capability interface when
// available and falls back to DeleteAllDocuments otherwise.
func TruncateCollection(ctx context.Context, s Store, name string) (int64, error) {
	if t, ok := s.(CollectionTruncator); ok {
		return t.TruncateCollection(ctx, name)
	}
	return s.DeleteAllDocuments(ctx, name)
}

// ExportCollection exports through the capability interface, returning
// ErrNotSupported when the store lacks it.
func ExportCollection(ctx context.Context, s Store, name string) (*CollectionDump, error) {
	if e, ok := s.(CollectionExporter); ok {
		return e.ExportCollection(ctx, name)
	}
	return nil, ErrNotSupported
}

// ImportCollection imports through the capability interface, returning
// ErrNotSupported when the store lacks it.
func ImportCollection(ctx context.Context, s Store, dump *CollectionDump) error {
	if i, ok := s.(CollectionImporter); ok {
		return i.ImportCollection(ctx, dump)
	}
	return ErrNotSupported
}

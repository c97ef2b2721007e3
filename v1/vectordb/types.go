package vectordb

// Document is the unit of storage shared by every backend.
// Metadata values are restricted to JSON-representable types
// (strings, numbers, booleans, nil, arrays and nested maps).
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// SearchResult pairs a document with its similarity score.
// Scores are normalized so that higher always means more similar,
// regardless of the backend's native distance metric.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// FilterMode controls how multiple predicates combine.
type FilterMode string

const (
	// FilterAnd requires every predicate to match (the default).
	FilterAnd FilterMode = "and"
	// FilterOr requires at least one predicate to match.
	FilterOr FilterMode = "or"
)

// SearchOptions parameterizes a similarity search.
//
// Threshold is a minimum-score cutoff applied after score normalization;
// nil disables it. Offset and Limit paginate the post-threshold result
// set. NativeFilter, when set, is passed to the backend verbatim and
// Predicates are still re-checked client-side.
type SearchOptions struct {
	TopK       int
	Threshold  *float32
	Offset     int
	Limit      int
	Predicates []Predicate
	Mode       FilterMode
	// NativeFilter is a backend-specific filter expression passed
	// through untranslated. Its concrete type depends on the adapter.
	NativeFilter any
}

// Page is a windowed slice of results together with the total number
// of results that passed the threshold before windowing.
type Page struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// ScrollRequest iterates a collection without a query vector.
// Offset is an opaque cursor returned by a previous scroll; empty
// starts from the beginning.
type ScrollRequest struct {
	Limit      int
	Offset     string
	Predicates []Predicate
	Mode       FilterMode
	// WithEmbeddings includes stored vectors in the returned documents.
	WithEmbeddings bool
}

// ScrollResult is one page of a collection scan. Total counts every
// document matching the request's predicates, not just this page.
type ScrollResult struct {
	Documents  []Document `json:"documents"`
	Total      int64      `json:"total"`
	NextOffset string     `json:"next_offset,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// CollectionInfo describes a collection's shape, size and creation
// metadata. Engines without their own metadata storage leave the
// descriptive fields empty; timestamps are unix seconds.
type CollectionInfo struct {
	Name              string `json:"name"`
	Dimension         int    `json:"dimension"`
	Count             int64  `json:"count"`
	Metric            string `json:"metric,omitempty"`
	Description       string `json:"description,omitempty"`
	EmbeddingModel    string `json:"embedding_model,omitempty"`
	EmbeddingProvider string `json:"embedding_provider,omitempty"`
	CreatedAt         int64  `json:"created_at,omitempty"`
	UpdatedAt         int64  `json:"updated_at,omitempty"`
}

// CreateCollectionOptions configures collection creation.
// Dimension is required by backends that fix vector size at creation
// time; adapters that infer it from the first insert may ignore a zero
// value. The descriptive fields are stored by engines with metadata
// support and surface again through GetCollectionInfo.
type CreateCollectionOptions struct {
	Dimension         int
	Metric            string
	Description       string
	EmbeddingModel    string
	EmbeddingProvider string
}

// CollectionDump is a portable snapshot of a collection, produced by
// exporters and consumed by importers. Documents always carry their
// embeddings.
type CollectionDump struct {
	Name      string     `json:"name"`
	Dimension int        `json:"dimension"`
	Documents []Document `json:"documents"`
}

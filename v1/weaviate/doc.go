// Package weaviate implements the vectordb.Store contract on top of
// the Weaviate vector database.
//
// Collections map onto Weaviate classes. Class names live in the
// GraphQL namespace (uppercase first letter, no dashes), so collection
// names are transformed on the way in and the original name rides in
// the class description for reversibility.
//
// # Data Layout
//
// Each class carries three fixed properties: the document ID, the
// content, and a JSON blob with the complete metadata. Scalar metadata
// keys with GraphQL-safe names are additionally flattened into
// auto-schema properties so equality filters can push down; the blob
// stays authoritative when rebuilding documents, which keeps types
// stable across the flattening.
//
// # Filtering
//
// Only equality translates natively. Weaviate's where filters are
// typed per property and the flattened property types come from
// auto-schema, so anything beyond an exact scalar match is evaluated
// client-side through the shared evaluator over an over-fetched
// candidate set. Native filters may only widen the candidate set,
// never narrow it; in OR mode one untranslatable predicate disables
// the native filter entirely.
//
// Filtering natively on a metadata key that no document has ever
// carried fails, because the property does not exist in the schema
// yet. Write before you filter.
//
// # Basic Usage
//
//	store, err := weaviate.New(weaviate.FromHost("localhost:8080"),
//	    weaviate.WithEmbedder(embedder))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.CreateCollection(ctx, "documents",
//	    vectordb.CreateCollectionOptions{Dimension: 1536})
//
// # Configuration
//
//	WEAVIATE_HOST=localhost:8080
//	WEAVIATE_SCHEME=http
//	WEAVIATE_API_KEY=...
//
// # Package Layout
//
//	weaviate/
//	├── client.go        // client lifecycle and readiness check
//	├── operations.go    // vectordb.Store implementation
//	├── filters.go       // predicate to where-filter compiler
//	├── converter.go     // class and object conversion
//	├── configs.go       // configuration struct
//	└── fx_module.go     // fx dependency injection module
package weaviate

// Package milvus implements the vectordb.Store contract on top of the
// Milvus vector database.
//
// Collections map one-to-one onto Milvus collections sharing a fixed
// schema: a VarChar primary key, a VarChar content field, a JSON
// metadata field, and the float vector with an HNSW cosine index.
// Keeping metadata in a single JSON column lets filters address
// arbitrary keys without schema migrations.
//
// # Filtering
//
// Predicates compile into Milvus boolean expressions over the JSON
// metadata field:
//
//	metadata["lang"] == "en" and metadata["pages"] >= 100
//
// Unlike the other adapters, this one never falls back to client-side
// evaluation: Milvus evaluates expressions inside the engine, and the
// adapter refuses untranslatable predicates with a TranslationError
// instead of silently scanning. The whole algebra maps onto the
// expression language, so refusals only occur for pathological values:
// LIKE wildcards inside string-operator values, mixed-type membership
// lists, or non-scalar comparisons.
//
// Null metadata values are stripped at write time, so `exists` is an
// exact stand-in for is_null and is_not_null.
//
// Callers can also pass a raw expression string through
// SearchOptions.NativeFilter; it is ANDed with any compiled
// predicates.
//
// # Basic Usage
//
//	store, err := milvus.New(milvus.FromAddress("localhost:19530"),
//	    milvus.WithEmbedder(embedder))
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
//	MILVUS_ADDRESS=localhost:19530
//	MILVUS_USERNAME=root
//	MILVUS_PASSWORD=...
//
// # Package Layout
//
//	milvus/
//	├── client.go        // client lifecycle
//	├── operations.go    // vectordb.Store implementation
//	├── filters.go       // predicate to expression compiler
//	├── converter.go     // schema and row conversion
//	├── configs.go       // configuration struct
//	└── fx_module.go     // fx dependency injection module
package milvus

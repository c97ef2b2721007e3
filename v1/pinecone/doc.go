// Package pinecone implements the vectordb.Store contract on top of a
// Pinecone serverless index.
//
// Pinecone indexes hold exactly one vector space, so the store maps
// collections onto namespaces within a single index. Namespaces are
// cheap, isolated, and created implicitly on first write; the backing
// index itself is created by the first CreateCollection call.
//
// # Core Features
//
//   - One serverless index, one namespace per collection
//   - Lazy client construction and cached per-namespace connections
//   - Batched upserts (default batch size 100)
//   - Predicate translation to Pinecone's metadata query language
//   - Client-side re-filtering for the string operators
//
// # Basic Usage
//
//	store, err := pinecone.New(pinecone.FromIndex("documents").
//	    WithApiKey(os.Getenv("PINECONE_API_KEY")),
//	    pinecone.WithEmbedder(embedder))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.CreateCollection(ctx, "articles",
//	    vectordb.CreateCollectionOptions{Dimension: 1536})
//
// # Filter Translation
//
// Equality, inequality, numeric comparisons, membership, and the null
// checks all push down natively ($eq, $ne, $gt, $gte, $lt, $lte, $in,
// $nin, $exists). Null metadata values are stripped at write time
// because Pinecone rejects them, which makes $exists an exact match
// for is_null and is_not_null. The string operators (starts_with,
// ends_with, contains, not_contains) have no native form and are
// evaluated client-side over an over-fetched candidate set.
//
// # Namespace Caveats
//
// Namespaces materialize on the first upsert and vanish when their
// last vector is deleted. CreateCollection therefore validates the
// index dimension but cannot reserve an empty namespace, and
// GetCollectionInfo reports ErrCollectionNotFound for collections
// that exist but hold no documents yet.
//
// ScrollDocuments pages by ID listing; predicates are applied after
// the fetch, so a filtered page may hold fewer than Limit documents.
// Keep paging while HasMore is set.
//
// # Configuration
//
//	PINECONE_API_KEY=your-api-key
//	PINECONE_INDEX=documents
//	PINECONE_CLOUD=aws
//	PINECONE_REGION=us-east-1
//
// # Package Layout
//
//	pinecone/
//	├── client.go        // client lifecycle and namespace connections
//	├── operations.go    // vectordb.Store implementation
//	├── filters.go       // predicate to metadata filter compiler
//	├── converter.go     // document ↔ vector conversion
//	├── configs.go       // configuration struct
//	└── fx_module.go     // fx dependency injection module
package pinecone

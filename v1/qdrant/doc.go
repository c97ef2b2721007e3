// Package qdrant implements the vectordb.Store contract on top of the
// Qdrant vector database.
//
// The package wraps the official Go client with lazy connection setup,
// batched writes, and automatic translation of metadata predicates into
// native Qdrant filters. It integrates with the fx dependency injection
// framework and supports builder-style configuration.
//
// # Core Features
//
//   - Lazy client initialization with a health check on first use
//   - Config struct supporting environment and YAML loading
//   - Batched upserts with configurable batch size (default 200)
//   - Predicate translation to native Qdrant filter conditions
//   - Client-side re-filtering for conditions Qdrant cannot express
//   - Deterministic point IDs derived from arbitrary document IDs
//
// # Basic Usage
//
//	import (
//	    "github.com/oneiric-ai/vecstore/v1/qdrant"
//	    "github.com/oneiric-ai/vecstore/v1/vectordb"
//	)
//
//	store, err := qdrant.New(qdrant.FromEndpoint("localhost", 6334),
//	    qdrant.WithEmbedder(embedder))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.CreateCollection(ctx, "documents",
//	    vectordb.CreateCollectionOptions{Dimension: 1536})
//
//	err = store.AddDocuments(ctx, "documents", []vectordb.Document{
//	    {ID: "doc-1", Content: "hello", Metadata: map[string]any{"lang": "en"}},
//	})
//
//	results, err := store.SearchDocuments(ctx, "documents", "greeting",
//	    vectordb.SearchOptions{
//	        TopK:       5,
//	        Predicates: []vectordb.Predicate{vectordb.Eq("lang", "en")},
//	    })
//
// # Filter Translation
//
// Predicates are compiled into native Qdrant conditions where possible:
// equality, inequality, numeric comparisons, and string-slice membership
// all push down to the server. Null checks push down approximately:
// is_null compiles to IsEmpty and is_not_null to a must_not IsNull
// clause, with the exact semantics restored client-side. Conditions
// Qdrant cannot express at all (string prefix and substring operators,
// mixed-type membership) fall back to client-side evaluation over an
// over-fetched candidate set. A native condition is only ever allowed
// to widen the candidate set, never narrow it, so the client-side pass
// always sees every matching point.
//
// In OR mode a single untranslatable predicate disables the native
// filter entirely, since a partial OR would narrow the results.
//
// Callers who need Qdrant features beyond the predicate algebra can pass
// a *qdrant.Filter through SearchOptions.NativeFilter; it is forwarded
// verbatim and any predicates are then applied client-side.
//
// # Identifiers
//
// Qdrant only accepts UUIDs or unsigned integers as point IDs. Document
// IDs that are already UUIDs are used directly; anything else maps to a
// deterministic UUIDv5. The original ID is stored in the payload and
// restored on every read, so callers never see the derived form.
//
// # Configuration
//
// The store can be configured via environment variables or YAML:
//
//	QDRANT_ENDPOINT=localhost
//	QDRANT_PORT=6334
//	QDRANT_API_KEY=your-api-key
//
// # FX Module Integration
//
//	app := fx.New(
//	    qdrant.FXModule,
//	    // other modules...
//	)
//	app.Run()
//
// # Thread Safety
//
// All exported methods on the Store are safe for concurrent use by
// multiple goroutines.
//
// # Package Layout
//
//	qdrant/
//	├── client.go        // client lifecycle and health check
//	├── operations.go    // vectordb.Store implementation
//	├── filters.go       // predicate to native filter compiler
//	├── converter.go     // document ↔ point conversion
//	├── configs.go       // configuration struct
//	└── fx_module.go     // fx dependency injection module
package qdrant

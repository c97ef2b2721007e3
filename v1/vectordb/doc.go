// Package vectordb provides a backend-agnostic abstraction for vector
// storage and similarity search.
//
// # Overview
//
// This package defines a common interface [Store] implemented by six
// backend adapters (local file, SQLite, Qdrant, Pinecone, Milvus and
// Weaviate), allowing applications to switch backends without changing
// application code.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    Application Layer                        │
//	│        (uses vectordb.Store - no DB-specific imports)       │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                      vectordb.Store                         │
//	│   (common interface + predicate algebra + shared helpers)   │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	        ┌──────────────────┼──────────────────┐
//	        ▼                  ▼                  ▼
//	┌───────────────┐  ┌───────────────┐  ┌───────────────┐
//	│ qdrant.Store  │  │ milvus.Store  │  │ weaviate.Store│
//	│  (implements) │  │  (implements) │  │  (implements) │
//	└───────────────┘  └───────────────┘  └───────────────┘
//
// # Filtering
//
// Metadata filters are flat lists of [Predicate] values combined with a
// [FilterMode]. Each adapter pushes as much of a filter into its native
// query language as that language allows; [Evaluate] defines the exact
// semantics and is the client-side fallback for the rest, so a filter
// means the same thing on every backend.
//
// # Scores and Pagination
//
// All adapters normalize similarity scores to higher-is-better before
// results leave the store, and every search path runs through
// [Paginate] for threshold and windowing. A caller paging through
// Qdrant results can point the same code at Pinecone and see the same
// pages.
//
// # Usage
//
//	func NewSearchService(db vectordb.Store) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	func (s *SearchService) Search(ctx context.Context, query string) ([]vectordb.SearchResult, error) {
//	    return s.db.SearchDocuments(ctx, "documents", query, vectordb.SearchOptions{
//	        TopK: 10,
//	        Predicates: []vectordb.Predicate{
//	            vectordb.Eq("status", "published"),
//	            vectordb.Gte("year", 2020),
//	        },
//	        Mode: vectordb.FilterAnd,
//	    })
//	}
package vectordb

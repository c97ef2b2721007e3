package milvus

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// The Milvus integration test needs a running server (standalone is
// fine) and is skipped unless an address is provided:
//
//	MILVUS_TEST_ADDRESS=localhost:19530 go test ./v1/milvus/
func integrationStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("MILVUS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("MILVUS_TEST_ADDRESS not set")
	}

	store, err := New(FromAddress(addr).WithTimeout(30 * time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMilvusStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store := integrationStore(t)
	ctx := context.Background()
	collection := fmt.Sprintf("it_%d", time.Now().UnixNano())

	docs := []vectordb.Document{
		{
			ID:        "doc-go",
			Content:   "intro to go",
			Metadata:  map[string]any{"lang": "en", "pages": 120, "topic": "go"},
			Embedding: []float32{1, 0, 0, 0},
		},
		{
			ID:        "doc-rust",
			Content:   "rust patterns",
			Metadata:  map[string]any{"lang": "en", "pages": 300, "topic": "rust"},
			Embedding: []float32{0, 1, 0, 0},
		},
		{
			ID:        "doc-conc",
			Content:   "go concurrency",
			Metadata:  map[string]any{"lang": "de", "pages": 80, "topic": "go"},
			Embedding: []float32{0.9, 0.1, 0, 0},
		},
	}

	require.NoError(t, store.CreateCollection(ctx, collection, vectordb.CreateCollectionOptions{Dimension: 4}))
	defer func() { _ = store.DeleteCollection(ctx, collection) }()

	assert.ErrorIs(t,
		store.CreateCollection(ctx, collection, vectordb.CreateCollectionOptions{Dimension: 4}),
		vectordb.ErrCollectionExists)

	require.NoError(t, store.AddDocuments(ctx, collection, docs))

	t.Run("GetDocuments", func(t *testing.T) {
		got, err := store.GetDocuments(ctx, collection, []string{"doc-rust", "doc-go"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "doc-rust", got[0].ID)
		assert.Equal(t, "rust patterns", got[0].Content)
		assert.EqualValues(t, 300, got[0].Metadata["pages"])
		assert.Len(t, got[0].Embedding, 4)
	})

	t.Run("SearchByEmbedding", func(t *testing.T) {
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{TopK: 3})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "doc-go", results[0].Document.ID)
	})

	t.Run("SearchFiltered", func(t *testing.T) {
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.Eq("lang", "en")},
			})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "en", r.Document.Metadata["lang"])
		}
	})

	t.Run("SearchStringOperator", func(t *testing.T) {
		// LIKE pushes down into the engine.
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.StartsWith("topic", "ru")},
			})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-rust", results[0].Document.ID)
	})

	t.Run("SearchUntranslatableFails", func(t *testing.T) {
		_, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.Contains("title", "50%")},
			})
		assert.True(t, vectordb.IsTranslationError(err))
	})

	t.Run("Scroll", func(t *testing.T) {
		seen := map[string]bool{}
		var cursor string
		for {
			res, err := store.ScrollDocuments(ctx, collection, vectordb.ScrollRequest{
				Limit:  2,
				Offset: cursor,
			})
			require.NoError(t, err)
			for _, d := range res.Documents {
				assert.False(t, seen[d.ID], "document %s returned twice", d.ID)
				seen[d.ID] = true
			}
			if !res.HasMore {
				break
			}
			cursor = res.NextOffset
		}
		assert.Len(t, seen, 3)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := store.CountDocuments(ctx, collection, nil, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = store.CountDocuments(ctx, collection,
			[]vectordb.Predicate{vectordb.Eq("topic", "go")}, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("CollectionInfo", func(t *testing.T) {
		info, err := store.GetCollectionInfo(ctx, collection)
		require.NoError(t, err)
		assert.Equal(t, collection, info.Name)
		assert.Equal(t, 4, info.Dimension)
		assert.EqualValues(t, 3, info.Count)

		_, err = store.GetCollectionInfo(ctx, "missing_collection")
		assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
	})

	t.Run("DeleteDocuments", func(t *testing.T) {
		require.NoError(t, store.DeleteDocuments(ctx, collection, []string{"doc-rust"}))

		got, err := store.GetDocuments(ctx, collection, []string{"doc-rust"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DeleteAllDocuments", func(t *testing.T) {
		removed, err := store.DeleteAllDocuments(ctx, collection)
		require.NoError(t, err)
		assert.EqualValues(t, 2, removed)

		n, err := store.CountDocuments(ctx, collection, nil, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(&Config{})
	assert.True(t, vectordb.IsConfigError(err), "missing address should fail")

	s, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "milvus", s.Provider())
	assert.Equal(t, defaultBatchSize, s.cfg.BatchSize)
}

package localstore

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	return s
}

func seedDocs() []vectordb.Document {
	return []vectordb.Document{
		{ID: "a", Content: "go concurrency", Embedding: []float32{1, 0, 0},
			Metadata: map[string]any{"lang": "go", "year": float64(2021), "tags": []any{"channels"}}},
		{ID: "b", Content: "rust ownership", Embedding: []float32{0, 1, 0},
			Metadata: map[string]any{"lang": "rust", "year": float64(2019)}},
		{ID: "c", Content: "go generics", Embedding: []float32{0.9, 0.1, 0},
			Metadata: map[string]any{"lang": "go", "year": float64(2023), "draft": nil}},
	}
}

func TestStore_AddAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	got, err := s.GetDocuments(ctx, "docs", []string{"a", "missing", "c"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	count, err := s.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestStore_AddValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AddDocuments(ctx, "docs", []vectordb.Document{{ID: "", Embedding: []float32{1}}})
	assert.Error(t, err)

	err = s.AddDocuments(ctx, "bad name!", seedDocs())
	assert.True(t, vectordb.IsConfigError(err))

	// Missing embedding without an embedder.
	err = s.AddDocuments(ctx, "docs", []vectordb.Document{{ID: "x", Content: "text"}})
	assert.ErrorIs(t, err, vectordb.ErrNoEmbedder)

	// Dimension mismatch against an existing collection.
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))
	err = s.AddDocuments(ctx, "docs", []vectordb.Document{{ID: "z", Embedding: []float32{1, 2}}})
	assert.Error(t, err)
}

func TestStore_SearchByEmbedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	results, err := s.SearchByEmbedding(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, "c", results[1].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestStore_SearchWithPredicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	results, err := s.SearchByEmbedding(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{
		TopK:       10,
		Predicates: []vectordb.Predicate{vectordb.Eq("lang", "go"), vectordb.Gte("year", 2022)},
		Mode:       vectordb.FilterAnd,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].Document.ID)

	results, err = s.SearchByEmbedding(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{
		TopK:       10,
		Predicates: []vectordb.Predicate{vectordb.Eq("lang", "rust"), vectordb.Gte("year", 2022)},
		Mode:       vectordb.FilterOr,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStore_SearchThresholdAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	th := float32(0.5)
	page, err := s.search(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{
		TopK: 10, Threshold: &th, Limit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "a", page.Results[0].Document.ID)

	page, err = s.search(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{
		TopK: 10, Threshold: &th, Limit: 1, Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "c", page.Results[0].Document.ID)
}

func TestStore_SearchUnknownCollection(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SearchByEmbedding(context.Background(), "nope", []float32{1}, vectordb.SearchOptions{})
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
}

func TestStore_UpdatePreservesCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	updated := []vectordb.Document{{ID: "a", Content: "updated", Embedding: []float32{0, 0, 1}}}
	require.NoError(t, s.UpdateDocuments(ctx, "docs", updated))

	got, err := s.GetDocuments(ctx, "docs", []string{"a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "updated", got[0].Content)

	count, err := s.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestStore_DeleteDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	require.NoError(t, s.DeleteDocuments(ctx, "docs", []string{"b", "missing"}))
	count, err := s.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Deleting from an unknown collection is a no-op.
	assert.NoError(t, s.DeleteDocuments(ctx, "nope", []string{"x"}))

	removed, err := s.DeleteAllDocuments(ctx, "docs")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	count, err = s.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// The collection itself survives.
	info, err := s.GetCollectionInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
}

func TestStore_Scroll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	first, err := s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Documents, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "a", first.Documents[0].ID)
	assert.Nil(t, first.Documents[0].Embedding, "embeddings stripped by default")

	second, err := s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Limit: 2, Offset: first.NextOffset})
	require.NoError(t, err)
	require.Len(t, second.Documents, 1)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextOffset)

	withVecs, err := s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Limit: 1, WithEmbeddings: true})
	require.NoError(t, err)
	assert.NotNil(t, withVecs.Documents[0].Embedding)

	filtered, err := s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{
		Limit:      10,
		Predicates: []vectordb.Predicate{vectordb.Eq("lang", "go")},
	})
	require.NoError(t, err)
	assert.Len(t, filtered.Documents, 2)

	_, err = s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Offset: "bogus"})
	assert.Error(t, err)
}

func TestStore_ScrollReportsTotal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	res, err := s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total, "total spans all matches, not the page")

	res, err = s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{
		Limit:      1,
		Predicates: []vectordb.Predicate{vectordb.Eq("lang", "go")},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	// Past the end of the stream the total still reflects the match set.
	res, err = s.ScrollDocuments(ctx, "docs", vectordb.ScrollRequest{Limit: 10, Offset: "5"})
	require.NoError(t, err)
	assert.Empty(t, res.Documents)
	assert.EqualValues(t, 3, res.Total)
}

func TestStore_RejectsNonFiniteEmbeddings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AddDocuments(ctx, "docs", []vectordb.Document{
		{ID: "bad-nan", Embedding: []float32{1, float32(math.NaN()), 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-nan")

	err = s.AddDocuments(ctx, "docs", []vectordb.Document{
		{ID: "bad-inf", Embedding: []float32{float32(math.Inf(1)), 0, 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-inf")

	count, err := s.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	if err == nil {
		assert.Zero(t, count, "nothing may slip through")
	}
}

func TestStore_LargeBatchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const total = 250
	batch := make([]vectordb.Document, 0, 50)
	for i := 0; i < total; i++ {
		batch = append(batch, vectordb.Document{
			ID:        fmt.Sprintf("doc-%03d", i),
			Content:   fmt.Sprintf("chunk %d", i),
			Embedding: []float32{float32(i), 1, 0},
			Metadata:  map[string]any{"seq": float64(i)},
		})
		if len(batch) == cap(batch) {
			require.NoError(t, s.AddDocuments(ctx, "bulk", batch))
			batch = batch[:0]
		}
	}

	count, err := s.CountDocuments(ctx, "bulk", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, total, count)

	seen := map[string]bool{}
	var cursor string
	for {
		res, err := s.ScrollDocuments(ctx, "bulk", vectordb.ScrollRequest{Limit: 64, Offset: cursor})
		require.NoError(t, err)
		assert.EqualValues(t, total, res.Total)
		for _, d := range res.Documents {
			assert.False(t, seen[d.ID], "document %s returned twice", d.ID)
			seen[d.ID] = true
		}
		if !res.HasMore {
			break
		}
		cursor = res.NextOffset
	}
	assert.Len(t, seen, total)
}

func TestStore_RejectsNativeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	_, err := s.SearchByEmbedding(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{
		TopK:         5,
		NativeFilter: "lang = 'go'",
	})
	assert.True(t, vectordb.IsConfigError(err), "native filters have no meaning here")
}

func TestStore_CountWithPredicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	count, err := s.CountDocuments(ctx, "docs",
		[]vectordb.Predicate{vectordb.Eq("lang", "go")}, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = s.CountDocuments(ctx, "docs",
		[]vectordb.Predicate{vectordb.IsNull("draft")}, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count, "absent and explicit null both count")
}

func TestStore_Collections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCollection(ctx, "alpha", vectordb.CreateCollectionOptions{Dimension: 4}))
	// Re-creating with the same or an unspecified dimension is harmless.
	assert.NoError(t, s.CreateCollection(ctx, "alpha", vectordb.CreateCollectionOptions{Dimension: 4}))
	assert.NoError(t, s.CreateCollection(ctx, "alpha", vectordb.CreateCollectionOptions{}))
	// A conflicting dimension is not.
	err := s.CreateCollection(ctx, "alpha", vectordb.CreateCollectionOptions{Dimension: 8})
	assert.True(t, vectordb.IsConfigError(err))
	require.NoError(t, s.CreateCollection(ctx, "beta", vectordb.CreateCollectionOptions{Dimension: 4}))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)

	info, err := s.GetCollectionInfo(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Dimension)
	assert.EqualValues(t, 0, info.Count)

	_, err = s.GetCollectionInfo(ctx, "gamma")
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)

	require.NoError(t, s.DeleteCollection(ctx, "beta"))
	assert.ErrorIs(t, s.DeleteCollection(ctx, "beta"), vectordb.ErrCollectionNotFound)
}

func TestStore_CollectionMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCollection(ctx, "papers", vectordb.CreateCollectionOptions{
		Dimension:         3,
		Description:       "research abstracts",
		EmbeddingModel:    "luminous-base",
		EmbeddingProvider: "aleph-alpha",
	}))

	info, err := s.GetCollectionInfo(ctx, "papers")
	require.NoError(t, err)
	assert.Equal(t, "research abstracts", info.Description)
	assert.Equal(t, "luminous-base", info.EmbeddingModel)
	assert.Equal(t, "aleph-alpha", info.EmbeddingProvider)
	assert.NotZero(t, info.CreatedAt)
	assert.GreaterOrEqual(t, info.UpdatedAt, info.CreatedAt)
}

func TestStore_Rename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "old", seedDocs()))
	require.NoError(t, s.CreateCollection(ctx, "taken", vectordb.CreateCollectionOptions{}))

	assert.ErrorIs(t, s.RenameCollection(ctx, "missing", "x"), vectordb.ErrCollectionNotFound)
	assert.ErrorIs(t, s.RenameCollection(ctx, "old", "taken"), vectordb.ErrCollectionExists)

	require.NoError(t, s.RenameCollection(ctx, "old", "new"))
	_, err := s.GetCollectionInfo(ctx, "old")
	assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
	info, err := s.GetCollectionInfo(ctx, "new")
	require.NoError(t, err)
	assert.EqualValues(t, 3, info.Count)
}

func TestStore_ExportImport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	dump, err := s.ExportCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", dump.Name)
	assert.Equal(t, 3, dump.Dimension)
	require.Len(t, dump.Documents, 3)
	assert.NotNil(t, dump.Documents[0].Embedding, "exports keep embeddings")

	other := newTestStore(t)
	require.NoError(t, other.ImportCollection(ctx, dump))
	count, err := other.CountDocuments(ctx, "docs", nil, vectordb.FilterAnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	results, err := other.SearchByEmbedding(ctx, "docs", []float32{1, 0, 0}, vectordb.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Document.ID)
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))
	require.NoError(t, s.CreateCollection(ctx, "empty", vectordb.CreateCollectionOptions{}))

	st := s.Stats()
	assert.Equal(t, 2, st.Collections)
	assert.Equal(t, 3, st.Documents)
	assert.EqualValues(t, 0, st.FileSize, "in-memory store has no snapshot")
}

func TestStore_SearchDocumentsUsesEmbedder(t *testing.T) {
	emb := &queryEmbedder{vector: []float32{1, 0, 0}}
	s, err := New(DefaultConfig(), WithEmbedder(emb))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "docs", seedDocs()))

	results, err := s.SearchDocuments(ctx, "docs", "go concurrency", vectordb.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Document.ID)
	assert.Equal(t, []string{"go concurrency"}, emb.lastTexts)

	page, err := s.SearchDocumentsWithTotal(ctx, "docs", "go concurrency", vectordb.SearchOptions{TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Results, 2)
}

type queryEmbedder struct {
	vector    []float32
	lastTexts []string
}

func (q *queryEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	q.lastTexts = texts
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = q.vector
	}
	return out, nil
}

func (q *queryEmbedder) Model() string { return "query-embedder" }

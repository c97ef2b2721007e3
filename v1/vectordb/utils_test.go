package vectordb

import (
	"math"
	"testing"
)

func TestChunkDocuments(t *testing.T) {
	docs := make([]Document, 250)
	chunks := ChunkDocuments(docs, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 || len(chunks[1]) != 100 || len(chunks[2]) != 50 {
		t.Errorf("chunk sizes = %d/%d/%d, want 100/100/50",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestChunkDocuments_Edge(t *testing.T) {
	if ChunkDocuments(nil, 100) != nil {
		t.Error("expected nil for empty input")
	}
	docs := make([]Document, 3)
	chunks := ChunkDocuments(docs, 0)
	if len(chunks) != 1 || len(chunks[0]) != 3 {
		t.Errorf("non-positive size should yield one chunk, got %d", len(chunks))
	}
	chunks = ChunkDocuments(docs, 10)
	if len(chunks) != 1 || len(chunks[0]) != 3 {
		t.Errorf("undersized batch should yield one chunk, got %d", len(chunks))
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("identical vectors: got %v, want 1", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(float64(got)+1) > 1e-6 {
		t.Errorf("opposite vectors: got %v, want -1", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
}

func TestScoreFromCosineDistance(t *testing.T) {
	if got := ScoreFromCosineDistance(0); got != 1 {
		t.Errorf("distance 0: got %v, want 1", got)
	}
	if got := ScoreFromCosineDistance(0.25); math.Abs(float64(got)-0.75) > 1e-6 {
		t.Errorf("distance 0.25: got %v, want 0.75", got)
	}
	if got := ScoreFromCosineDistance(2); got != -1 {
		t.Errorf("distance 2: got %v, want -1", got)
	}
}

func TestSortResultsByScore_Stable(t *testing.T) {
	rs := []SearchResult{
		{Document: Document{ID: "low"}, Score: 0.1},
		{Document: Document{ID: "tie-a"}, Score: 0.5},
		{Document: Document{ID: "tie-b"}, Score: 0.5},
		{Document: Document{ID: "high"}, Score: 0.9},
	}
	SortResultsByScore(rs)
	want := []string{"high", "tie-a", "tie-b", "low"}
	for i, id := range want {
		if rs[i].Document.ID != id {
			t.Fatalf("position %d = %s, want %s", i, rs[i].Document.ID, id)
		}
	}
}

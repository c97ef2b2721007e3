package vectordb

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	calls [][]string
	fail  error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embed-v1" }

func TestEnsureEmbeddings_FillsOnlyMissing(t *testing.T) {
	emb := &fakeEmbedder{}
	docs := []Document{
		{ID: "1", Content: "has vector", Embedding: []float32{9, 9}},
		{ID: "2", Content: "abc"},
		{ID: "3", Content: "abcd"},
	}
	if err := EnsureEmbeddings(context.Background(), emb, docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Embedding[0] != 9 {
		t.Error("existing embedding was overwritten")
	}
	if len(docs[1].Embedding) == 0 || len(docs[2].Embedding) == 0 {
		t.Error("missing embeddings were not filled")
	}
	if len(emb.calls) != 1 || len(emb.calls[0]) != 2 {
		t.Errorf("expected one embed call with 2 texts, got %+v", emb.calls)
	}
}

func TestEnsureEmbeddings_NoEmbedder(t *testing.T) {
	docs := []Document{{ID: "1", Content: "x"}}
	err := EnsureEmbeddings(context.Background(), nil, docs)
	if !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("expected ErrNoEmbedder, got %v", err)
	}

	// No missing vectors: a nil embedder is fine.
	docs = []Document{{ID: "1", Content: "x", Embedding: []float32{1}}}
	if err := EnsureEmbeddings(context.Background(), nil, docs); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnsureEmbeddings_WrapsFailure(t *testing.T) {
	emb := &fakeEmbedder{fail: errors.New("quota exceeded")}
	docs := []Document{{ID: "1", Content: "x"}}
	err := EnsureEmbeddings(context.Background(), emb, docs)
	if !IsEmbeddingError(err) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
	var ee *EmbeddingError
	errors.As(err, &ee)
	if ee.Model != "fake-embed-v1" {
		t.Errorf("model = %q, want fake-embed-v1", ee.Model)
	}
}

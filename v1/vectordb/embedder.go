package vectordb

import (
	"context"
	"fmt"
)

// Embedder turns texts into vectors. Implementations batch however
// their provider allows; callers treat the call as atomic.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the embedding model, for error messages and logs.
	Model() string
}

// EnsureEmbeddings fills in missing embeddings in place. Documents
// that already carry a vector are left untouched; the rest are
// embedded from their content in a single call. With no embedder and
// at least one missing vector it fails with ErrNoEmbedder.
func EnsureEmbeddings(ctx context.Context, embedder Embedder, docs []Document) error {
	var (
		texts   []string
		indices []int
	)
	for i, d := range docs {
		if len(d.Embedding) == 0 {
			texts = append(texts, d.Content)
			indices = append(indices, i)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	if embedder == nil {
		return ErrNoEmbedder
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return &EmbeddingError{Model: embedder.Model(), Err: err}
	}
	if len(vectors) != len(texts) {
		return &EmbeddingError{
			Model: embedder.Model(),
			Err:   fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts)),
		}
	}
	for j, i := range indices {
		docs[i].Embedding = vectors[j]
	}
	return nil
}

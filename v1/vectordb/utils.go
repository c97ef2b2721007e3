package vectordb

import (
	"math"
	"sort"
)

// ChunkDocuments splits docs into batches of at most size. A
// non-positive size yields a single batch. The returned slices alias
// the input.
func ChunkDocuments(docs []Document, size int) [][]Document {
	if len(docs) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]Document{docs}
	}
	chunks := make([][]Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// ScoreFromCosineDistance converts a cosine distance (0 = identical)
// into the shared higher-is-better score.
func ScoreFromCosineDistance(distance float32) float32 {
	return 1 - distance
}

// SortResultsByScore orders results best-first. The sort is stable so
// equal scores keep their backend order.
func SortResultsByScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// CloneMetadata deep-copies a metadata map one level down, enough to
// keep callers from mutating stored documents through shared maps.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package vectordb

import (
	"fmt"
	"math"
	"regexp"
)

// Collection names travel into URLs, file names and SQL identifiers,
// so the character set is kept deliberately narrow.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateCollectionName checks a collection name against the shared
// naming rules: 1-128 characters, alphanumeric with underscores and
// hyphens, starting with an alphanumeric.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("invalid collection name %q: use letters, digits, '_' and '-', starting with a letter or digit, at most 128 characters", name)
	}
	return nil
}

// ValidateDocuments checks a batch before it is handed to a backend:
// IDs must be non-empty and unique within the batch, embeddings must
// be finite, and documents that carry embeddings must agree on
// dimension. dim constrains the expected dimension when positive.
func ValidateDocuments(docs []Document, dim int) error {
	if len(docs) == 0 {
		return fmt.Errorf("no documents given")
	}
	seen := make(map[string]struct{}, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d: empty id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("document %d: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = struct{}{}
		if len(d.Embedding) == 0 {
			continue
		}
		if dim > 0 && len(d.Embedding) != dim {
			return fmt.Errorf("document %q: embedding has %d dimensions, collection expects %d", d.ID, len(d.Embedding), dim)
		}
		if dim == 0 {
			dim = len(d.Embedding)
		}
		for j, v := range d.Embedding {
			if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("document %q: embedding component %d is %v", d.ID, j, v)
			}
		}
	}
	return nil
}

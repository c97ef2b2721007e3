package weaviate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   CLASS AND OBJECT CONVERSION
// ──────────────────────────────────────────────────────────────
//
// Weaviate class names live in the GraphQL namespace: they must start
// with an uppercase letter and cannot contain dashes. Collection
// names are mapped by swapping dashes for underscores and raising the
// first letter; the original name is kept in the class description so
// the mapping stays reversible for ListCollections.
//

const (
	propID      = "doc_id"
	propContent = "content"
	propMeta    = "meta_json"
)

// idNamespace seeds UUIDv5 derivation for object IDs.
var idNamespace = uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8")

// propertyNameRe matches metadata keys that are safe to flatten into
// GraphQL property names.
var propertyNameRe = regexp.MustCompile(`^[a-z][_0-9A-Za-z]*$`)

// className maps a collection name into the GraphQL namespace.
func className(collection string) string {
	s := strings.ReplaceAll(collection, "-", "_")
	return strings.ToUpper(s[:1]) + s[1:]
}

// objectID derives a deterministic object UUID from the collection
// and document ID pair.
func objectID(collection, docID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(idNamespace, []byte(collection+"/"+docID)).String())
}

// classMeta rides in the class description so the original collection
// name and vector dimension survive round trips through the schema.
type classMeta struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

func encodeClassMeta(m classMeta) string {
	raw, _ := json.Marshal(m)
	return string(raw)
}

func decodeClassMeta(description string) (classMeta, bool) {
	var m classMeta
	if err := json.Unmarshal([]byte(description), &m); err != nil || m.Name == "" {
		return classMeta{}, false
	}
	return m, true
}

// toObject builds the Weaviate object for a document. The metadata
// blob is authoritative; scalar keys with GraphQL-safe names are
// additionally flattened so equality filters can push down.
func toObject(collection string, doc vectordb.Document) (*models.Object, error) {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", doc.ID, err)
	}

	props := map[string]any{
		propID:      doc.ID,
		propContent: doc.Content,
		propMeta:    string(meta),
	}
	for k, v := range doc.Metadata {
		if !flattenable(k, v) {
			continue
		}
		props[k] = flattenValue(v)
	}

	return &models.Object{
		Class:      className(collection),
		ID:         objectID(collection, doc.ID),
		Properties: props,
		Vector:     models.C11yVector(doc.Embedding),
	}, nil
}

// flattenable reports whether a metadata entry can become a class
// property without colliding with the reserved layout.
func flattenable(key string, value any) bool {
	switch key {
	case propID, propContent, propMeta:
		return false
	}
	if !propertyNameRe.MatchString(key) {
		return false
	}
	switch value.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// flattenValue widens flattened numbers to float64 so auto-schema
// types every numeric property as "number" and equality filters can
// always use the number operand.
func flattenValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// fromProps rebuilds a document from object properties, preferring
// the JSON blob over the flattened copies.
func fromProps(props map[string]any) vectordb.Document {
	var doc vectordb.Document
	if id, ok := props[propID].(string); ok {
		doc.ID = id
	}
	if content, ok := props[propContent].(string); ok {
		doc.Content = content
	}
	if raw, ok := props[propMeta].(string); ok && raw != "" && raw != "null" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(raw), &metadata); err == nil && len(metadata) > 0 {
			doc.Metadata = metadata
		}
	}
	return doc
}

// vectorFromAdditional extracts the stored embedding from a GraphQL
// _additional payload.
func vectorFromAdditional(additional map[string]any) []float32 {
	raw, ok := additional["vector"].([]any)
	if !ok {
		return nil
	}
	vec := make([]float32, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		vec = append(vec, float32(f))
	}
	return vec
}

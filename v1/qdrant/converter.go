package qdrant

import (
	"strconv"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   PAYLOAD CONVERSION
// ──────────────────────────────────────────────────────────────
//
// Documents map onto Qdrant points as follows:
//
//   point id:    the document ID when it already is a UUID, otherwise
//                a deterministic UUIDv5 derived from it
//   _id:         the original document ID, kept in the payload so the
//                mapping is reversible
//   _content:    the document content
//   <metadata>:  metadata keys verbatim at the payload top level, so
//                filters address them by their plain names
//

const (
	payloadKeyID      = "_id"
	payloadKeyContent = "_content"
)

// idNamespace seeds UUIDv5 derivation for non-UUID document IDs.
var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// pointID maps a document ID onto a Qdrant-acceptable point ID.
// UUIDs pass through so externally created points stay addressable.
func pointID(docID string) string {
	if _, err := uuid.Parse(docID); err == nil {
		return docID
	}
	return uuid.NewSHA1(idNamespace, []byte(docID)).String()
}

// toPayload flattens a document into a Qdrant payload map.
func toPayload(doc vectordb.Document) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	payload[payloadKeyID] = doc.ID
	payload[payloadKeyContent] = doc.Content
	return payload
}

// fromPayload rebuilds a document (sans vector) from a point payload.
// The fallbackID is used when the payload predates the _id convention.
func fromPayload(payload map[string]*qdrant.Value, fallbackID string) vectordb.Document {
	doc := vectordb.Document{ID: fallbackID}
	for k, v := range payload {
		switch k {
		case payloadKeyID:
			if s, ok := valueToAny(v).(string); ok {
				doc.ID = s
			}
		case payloadKeyContent:
			if s, ok := valueToAny(v).(string); ok {
				doc.Content = s
			}
		default:
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]any)
			}
			doc.Metadata[k] = valueToAny(v)
		}
	}
	return doc
}

// valueToAny unwraps a Qdrant payload value into plain Go data.
func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for name, field := range fields {
			out[name] = valueToAny(field)
		}
		return out
	default:
		return nil
	}
}

// scoredPointID extracts the canonical point ID string.
func scoredPointID(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10)
	default:
		return ""
	}
}

// vectorData pulls the dense vector out of a retrieved point's
// vectors, nil when the point was fetched without vectors.
func vectorData(v *qdrant.VectorsOutput) []float32 {
	if v == nil {
		return nil
	}
	if dense := v.GetVector(); dense != nil {
		return dense.GetData()
	}
	return nil
}

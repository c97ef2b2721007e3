package pinecone

import (
	pc "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   METADATA CONVERSION
// ──────────────────────────────────────────────────────────────
//
// Pinecone accepts arbitrary string IDs, so document IDs pass through
// unchanged. The content travels in a reserved metadata key; user
// metadata stays flat at the top level so filters address keys by
// their plain names. Null values are stripped before upsert because
// Pinecone rejects them, which makes $exists an exact stand-in for the
// null-check operators.
//

const metadataKeyContent = "_content"

// toMetadata flattens a document into a Pinecone metadata struct.
func toMetadata(doc vectordb.Document) (*pc.Metadata, error) {
	payload := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		if v == nil {
			continue
		}
		payload[k] = v
	}
	payload[metadataKeyContent] = doc.Content
	return structpb.NewStruct(payload)
}

// fromMetadata rebuilds a document (sans vector) from a fetched or
// matched vector's metadata.
func fromMetadata(id string, md *pc.Metadata) vectordb.Document {
	doc := vectordb.Document{ID: id}
	if md == nil {
		return doc
	}
	for k, v := range md.AsMap() {
		if k == metadataKeyContent {
			if s, ok := v.(string); ok {
				doc.Content = s
			}
			continue
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata[k] = v
	}
	return doc
}

// vectorValues dereferences a vector's value slice, nil-safe.
func vectorValues(v *pc.Vector) []float32 {
	if v == nil || v.Values == nil {
		return nil
	}
	return *v.Values
}

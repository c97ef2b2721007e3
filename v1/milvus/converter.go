package milvus

import (
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   SCHEMA AND ROW CONVERSION
// ──────────────────────────────────────────────────────────────
//
// Every collection shares one schema: a VarChar primary key, a VarChar
// content field, a JSON metadata field, and the float vector. Keeping
// metadata in a single JSON column lets the expression compiler
// address arbitrary keys without schema migrations.
//

const (
	fieldID       = "id"
	fieldContent  = "content"
	fieldMetadata = "metadata"
	fieldVector   = "vector"

	maxIDLength      = 512
	maxContentLength = 65535
)

// collectionSchema builds the shared document schema for a dimension.
func collectionSchema(name string, dim int) *entity.Schema {
	return entity.NewSchema().
		WithName(name).
		WithField(entity.NewField().
			WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxIDLength).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(fieldContent).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxContentLength)).
		WithField(entity.NewField().
			WithName(fieldMetadata).
			WithDataType(entity.FieldTypeJSON)).
		WithField(entity.NewField().
			WithName(fieldVector).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim)))
}

// encodeMetadata serializes metadata for the JSON column. Null values
// are stripped so `exists` stays an exact null check.
func encodeMetadata(metadata map[string]any) ([]byte, error) {
	clean := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if v == nil {
			continue
		}
		clean[k] = v
	}
	return json.Marshal(clean)
}

func decodeMetadata(raw string) map[string]any {
	if raw == "" || raw == "{}" || raw == "null" {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

// documentsFromResultSet rebuilds documents from a query or search
// result set.
func documentsFromResultSet(rs milvusclient.ResultSet, withVectors bool) ([]vectordb.Document, error) {
	idCol := rs.GetColumn(fieldID)
	if idCol == nil {
		idCol = rs.IDs
	}
	if idCol == nil {
		return nil, fmt.Errorf("milvus: result set has no id column")
	}

	contentCol := rs.GetColumn(fieldContent)
	metadataCol := rs.GetColumn(fieldMetadata)

	var vectors [][]float32
	if withVectors {
		if vc, ok := rs.GetColumn(fieldVector).(*column.ColumnFloatVector); ok {
			for _, fv := range vc.Data() {
				vectors = append(vectors, []float32(fv))
			}
		}
	}

	docs := make([]vectordb.Document, 0, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		id, err := idCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("milvus: reading id at row %d: %w", i, err)
		}
		doc := vectordb.Document{ID: id}
		if contentCol != nil {
			if s, err := contentCol.GetAsString(i); err == nil {
				doc.Content = s
			}
		}
		if metadataCol != nil {
			if raw, err := metadataCol.GetAsString(i); err == nil {
				doc.Metadata = decodeMetadata(raw)
			}
		}
		if vectors != nil && i < len(vectors) {
			doc.Embedding = vectors[i]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

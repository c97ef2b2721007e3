package sqlitestore

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		name               TEXT PRIMARY KEY,
		dimension          INTEGER NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		embedding_model    TEXT NOT NULL DEFAULT '',
		embedding_provider TEXT NOT NULL DEFAULT '',
		created_at         INTEGER NOT NULL,
		updated_at         INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		metadata   TEXT,
		embedding  BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
}

func migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlitestore: migration %d: %w", i, err)
		}
	}
	return nil
}

// Vectors are stored as little-endian float32 blobs, four bytes per
// dimension.

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("sqlitestore: embedding blob has %d bytes, not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}

package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// snapshotVersion guards the on-disk format. Bump on incompatible
// changes and branch in load.
const snapshotVersion = 1

type snapshotFile struct {
	Version     int                  `json:"version"`
	SavedAt     time.Time            `json:"saved_at"`
	Collections []snapshotCollection `json:"collections"`
}

type snapshotCollection struct {
	Name              string             `json:"name"`
	Dimension         int                `json:"dimension"`
	Description       string             `json:"description,omitempty"`
	EmbeddingModel    string             `json:"embedding_model,omitempty"`
	EmbeddingProvider string             `json:"embedding_provider,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Documents         []snapshotDocument `json:"documents"`
}

type snapshotDocument struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// saveLocked writes the snapshot atomically: marshal, write a sibling
// temp file, fsync, rename over the target. A crash mid-write leaves
// the previous snapshot intact. Callers hold the write lock.
func (s *Store) saveLocked() error {
	snap := snapshotFile{
		Version: snapshotVersion,
		SavedAt: s.now(),
	}
	for _, name := range sortedKeys(s.collections) {
		c := s.collections[name]
		sc := snapshotCollection{
			Name:              c.name,
			Dimension:         c.dimension,
			Description:       c.description,
			EmbeddingModel:    c.embeddingModel,
			EmbeddingProvider: c.embeddingProvider,
			CreatedAt:         c.createdAt,
			UpdatedAt:         c.updatedAt,
			Documents:         make([]snapshotDocument, 0, len(c.order)),
		}
		for _, id := range c.order {
			r := c.docs[id]
			sc.Documents = append(sc.Documents, snapshotDocument{
				ID:        r.doc.ID,
				Content:   r.doc.Content,
				Metadata:  r.doc.Metadata,
				Embedding: r.doc.Embedding,
				CreatedAt: r.createdAt,
				UpdatedAt: r.updatedAt,
			})
		}
		snap.Collections = append(snap.Collections, sc)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("localstore: encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("localstore: creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.cfg.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("localstore: creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localstore: writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localstore: syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localstore: closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.cfg.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localstore: replacing snapshot: %w", err)
	}
	return nil
}

// load reads an existing snapshot. A missing file is not an error;
// the store simply starts empty.
func (s *Store) load() error {
	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("localstore: reading snapshot: %w", err)
	}
	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("localstore: decoding snapshot %s: %w", s.cfg.Path, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("localstore: snapshot %s has unsupported version %d", s.cfg.Path, snap.Version)
	}

	s.collections = make(map[string]*collection, len(snap.Collections))
	for _, sc := range snap.Collections {
		c := &collection{
			name:              sc.Name,
			dimension:         sc.Dimension,
			description:       sc.Description,
			embeddingModel:    sc.EmbeddingModel,
			embeddingProvider: sc.EmbeddingProvider,
			docs:              make(map[string]*record, len(sc.Documents)),
			order:             make([]string, 0, len(sc.Documents)),
			createdAt:         sc.CreatedAt,
			updatedAt:         sc.UpdatedAt,
		}
		for _, sd := range sc.Documents {
			c.docs[sd.ID] = &record{
				doc: vectordb.Document{
					ID:        sd.ID,
					Content:   sd.Content,
					Metadata:  sd.Metadata,
					Embedding: sd.Embedding,
				},
				createdAt: sd.CreatedAt,
				updatedAt: sd.UpdatedAt,
			}
			c.order = append(c.order, sd.ID)
		}
		s.collections[sc.Name] = c
	}
	return nil
}

func (s *Store) snapshotSize() int64 {
	if s.cfg.Path == "" {
		return 0
	}
	fi, err := os.Stat(s.cfg.Path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func sortedKeys(m map[string]*collection) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

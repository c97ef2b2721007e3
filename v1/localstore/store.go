package localstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

const providerName = "local"

// record is a stored document with bookkeeping timestamps.
type record struct {
	doc       vectordb.Document
	createdAt time.Time
	updatedAt time.Time
}

// collection groups records and remembers insertion order so scrolling
// is deterministic.
type collection struct {
	name              string
	dimension         int
	description       string
	embeddingModel    string
	embeddingProvider string
	docs              map[string]*record
	order             []string
	createdAt         time.Time
	updatedAt         time.Time
}

// Store is the file-backed reference implementation of
// [vectordb.Store]. Everything lives in memory; an optional JSON
// snapshot on disk survives restarts. It is the backend the filter
// evaluator was written against, so nothing here is ever post-filtered
// twice.
type Store struct {
	mu          sync.RWMutex
	cfg         *Config
	embedder    vectordb.Embedder
	logger      *zap.Logger
	collections map[string]*collection
	now         func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithEmbedder attaches an embedder used to vectorize documents and
// queries that arrive without embeddings.
func WithEmbedder(e vectordb.Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger attaches a logger; defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store and, when the config names a snapshot path,
// loads the existing snapshot from disk.
func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Store{
		cfg:         cfg,
		logger:      zap.NewNop(),
		collections: make(map[string]*collection),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Path != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Provider() string { return providerName }

// persistLocked writes the snapshot if auto-persist is on. Callers
// hold the write lock.
func (s *Store) persistLocked() error {
	if s.cfg.Path == "" || !s.cfg.AutoPersist {
		return nil
	}
	return s.saveLocked()
}

// Flush writes the snapshot to disk regardless of the auto-persist
// setting. No-op for purely in-memory stores.
func (s *Store) Flush() error {
	if s.cfg.Path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Close persists pending state and releases the store.
func (s *Store) Close() error {
	return s.Flush()
}

func (s *Store) getOrCreateLocked(name string, dimension int) *collection {
	c, ok := s.collections[name]
	if !ok {
		now := s.now()
		c = &collection{
			name:      name,
			dimension: dimension,
			docs:      make(map[string]*record),
			createdAt: now,
			updatedAt: now,
		}
		s.collections[name] = c
	}
	return c
}

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document, preserveCreated bool) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if err := vectordb.ValidateDocuments(docs, s.dimensionOf(name)); err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.getOrCreateLocked(name, len(docs[0].Embedding))
	if c.dimension == 0 {
		c.dimension = len(docs[0].Embedding)
	}
	now := s.now()
	for _, d := range docs {
		if len(d.Embedding) != c.dimension {
			return fmt.Errorf("localstore: document %q: embedding has %d dimensions, collection %q expects %d",
				d.ID, len(d.Embedding), name, c.dimension)
		}
		d.Metadata = vectordb.CloneMetadata(d.Metadata)
		if existing, ok := c.docs[d.ID]; ok && preserveCreated {
			existing.doc = d
			existing.updatedAt = now
		} else {
			if _, ok := c.docs[d.ID]; !ok {
				c.order = append(c.order, d.ID)
			}
			c.docs[d.ID] = &record{doc: d, createdAt: now, updatedAt: now}
		}
	}
	c.updatedAt = now

	s.logger.Debug("documents upserted",
		zap.String("collection", name),
		zap.Int("count", len(docs)))
	return s.persistLocked()
}

func (s *Store) dimensionOf(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return c.dimension
	}
	return 0
}

func (s *Store) AddDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs, false)
}

func (s *Store) UpdateDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs, true)
}

func (s *Store) DeleteDocuments(_ context.Context, name string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.docs[id]; ok {
			delete(c.docs, id)
			removed[id] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return nil
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if _, gone := removed[id]; !gone {
			kept = append(kept, id)
		}
	}
	c.order = kept
	c.updatedAt = s.now()
	return s.persistLocked()
}

func (s *Store) DeleteAllDocuments(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, vectordb.ErrCollectionNotFound
	}
	removed := int64(len(c.docs))
	c.docs = make(map[string]*record)
	c.order = nil
	c.updatedAt = s.now()
	return removed, s.persistLocked()
}

// filteredLocked returns the collection's documents that pass the
// predicates, in insertion order. Callers hold at least a read lock.
func (c *collection) filteredLocked(predicates []vectordb.Predicate, mode vectordb.FilterMode) []*record {
	out := make([]*record, 0, len(c.order))
	for _, id := range c.order {
		r := c.docs[id]
		if vectordb.Evaluate(r.doc.Metadata, predicates, mode) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) search(_ context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	if opts.NativeFilter != nil {
		return vectordb.Page{}, vectordb.NewConfigError(providerName, "native_filter",
			"the local backend has no native filter dialect; use predicates")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return vectordb.Page{}, vectordb.ErrCollectionNotFound
	}

	candidates := c.filteredLocked(opts.Predicates, opts.Mode)
	scored := make([]vectordb.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		scored = append(scored, vectordb.SearchResult{
			Document: r.doc,
			Score:    vectordb.CosineSimilarity(embedding, r.doc.Embedding),
		})
	}
	vectordb.SortResultsByScore(scored)

	return vectordb.Paginate(scored, vectordb.PageOptions{
		Threshold: opts.Threshold,
		Offset:    opts.Offset,
		Limit:     opts.Limit,
		TopK:      opts.TopK,
	}), nil
}

func (s *Store) SearchByEmbedding(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) ([]vectordb.SearchResult, error) {
	page, err := s.search(ctx, name, embedding, opts)
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (s *Store) SearchDocuments(ctx context.Context, name, query string, opts vectordb.SearchOptions) ([]vectordb.SearchResult, error) {
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.SearchByEmbedding(ctx, name, embedding, opts)
}

func (s *Store) SearchDocumentsWithTotal(ctx context.Context, name, query string, opts vectordb.SearchOptions) (vectordb.Page, error) {
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return vectordb.Page{}, err
	}
	return s.search(ctx, name, embedding, opts)
}

func (s *Store) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, vectordb.ErrNoEmbedder
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &vectordb.EmbeddingError{Model: s.embedder.Model(), Err: err}
	}
	if len(vectors) != 1 {
		return nil, &vectordb.EmbeddingError{Model: s.embedder.Model(),
			Err: fmt.Errorf("expected 1 vector, got %d", len(vectors))}
	}
	return vectors[0], nil
}

func (s *Store) ScrollDocuments(_ context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return vectordb.ScrollResult{}, vectordb.ErrCollectionNotFound
	}

	start := 0
	if req.Offset != "" {
		n, err := strconv.Atoi(req.Offset)
		if err != nil || n < 0 {
			return vectordb.ScrollResult{}, fmt.Errorf("localstore: invalid scroll offset %q", req.Offset)
		}
		start = n
	}
	limit := req.Limit
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}

	matched := c.filteredLocked(req.Predicates, req.Mode)
	total := int64(len(matched))
	if start >= len(matched) {
		return vectordb.ScrollResult{Documents: []vectordb.Document{}, Total: total}, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	docs := make([]vectordb.Document, 0, end-start)
	for _, r := range matched[start:end] {
		d := r.doc
		if !req.WithEmbeddings {
			d.Embedding = nil
		}
		docs = append(docs, d)
	}

	res := vectordb.ScrollResult{Documents: docs, Total: total, HasMore: end < len(matched)}
	if res.HasMore {
		res.NextOffset = strconv.Itoa(end)
	}
	return res, nil
}

func (s *Store) GetDocuments(_ context.Context, name string, ids []string) ([]vectordb.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, vectordb.ErrCollectionNotFound
	}
	docs := make([]vectordb.Document, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.docs[id]; ok {
			docs = append(docs, r.doc)
		}
	}
	return docs, nil
}

func (s *Store) CountDocuments(_ context.Context, name string, predicates []vectordb.Predicate, mode vectordb.FilterMode) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return 0, vectordb.ErrCollectionNotFound
	}
	if len(predicates) == 0 {
		return int64(len(c.docs)), nil
	}
	return int64(len(c.filteredLocked(predicates, mode))), nil
}

func (s *Store) CreateCollection(_ context.Context, name string, opts vectordb.CreateCollectionOptions) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.collections[name]; exists {
		// Re-creating with the same dimension is a no-op; only a
		// conflicting dimension is an error.
		if opts.Dimension > 0 && existing.dimension > 0 && opts.Dimension != existing.dimension {
			return vectordb.NewConfigError(providerName, "dimension",
				fmt.Sprintf("collection %q has dimension %d, requested %d", name, existing.dimension, opts.Dimension))
		}
		return nil
	}
	c := s.getOrCreateLocked(name, opts.Dimension)
	c.description = opts.Description
	c.embeddingModel = opts.EmbeddingModel
	c.embeddingProvider = opts.EmbeddingProvider
	return s.persistLocked()
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return vectordb.ErrCollectionNotFound
	}
	delete(s.collections, name)
	return s.persistLocked()
}

func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) GetCollectionInfo(_ context.Context, name string) (*vectordb.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, vectordb.ErrCollectionNotFound
	}
	return &vectordb.CollectionInfo{
		Name:              c.name,
		Dimension:         c.dimension,
		Count:             int64(len(c.docs)),
		Metric:            "cosine",
		Description:       c.description,
		EmbeddingModel:    c.embeddingModel,
		EmbeddingProvider: c.embeddingProvider,
		CreatedAt:         c.createdAt.Unix(),
		UpdatedAt:         c.updatedAt.Unix(),
	}, nil
}

// ── Optional Capabilities ────────────────────────────────────────────────────

func (s *Store) RenameCollection(_ context.Context, oldName, newName string) error {
	if err := vectordb.ValidateCollectionName(newName); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[oldName]
	if !ok {
		return vectordb.ErrCollectionNotFound
	}
	if _, taken := s.collections[newName]; taken {
		return vectordb.ErrCollectionExists
	}
	delete(s.collections, oldName)
	c.name = newName
	c.updatedAt = s.now()
	s.collections[newName] = c
	return s.persistLocked()
}

func (s *Store) TruncateCollection(ctx context.Context, name string) (int64, error) {
	return s.DeleteAllDocuments(ctx, name)
}

func (s *Store) ExportCollection(_ context.Context, name string) (*vectordb.CollectionDump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, vectordb.ErrCollectionNotFound
	}
	dump := &vectordb.CollectionDump{
		Name:      c.name,
		Dimension: c.dimension,
		Documents: make([]vectordb.Document, 0, len(c.order)),
	}
	for _, id := range c.order {
		dump.Documents = append(dump.Documents, c.docs[id].doc)
	}
	return dump, nil
}

func (s *Store) ImportCollection(_ context.Context, dump *vectordb.CollectionDump) error {
	if dump == nil {
		return fmt.Errorf("localstore: nil dump")
	}
	if err := vectordb.ValidateCollectionName(dump.Name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getOrCreateLocked(dump.Name, dump.Dimension)
	now := s.now()
	for _, d := range dump.Documents {
		if _, ok := c.docs[d.ID]; !ok {
			c.order = append(c.order, d.ID)
		}
		c.docs[d.ID] = &record{doc: d, createdAt: now, updatedAt: now}
	}
	if c.dimension == 0 {
		c.dimension = dump.Dimension
	}
	c.updatedAt = now
	return s.persistLocked()
}

// Stats summarizes the whole store.
type Stats struct {
	Collections int   `json:"collections"`
	Documents   int   `json:"documents"`
	FileSize    int64 `json:"file_size_bytes"`
}

// Stats reports collection and document counts plus the on-disk
// snapshot size, when one exists.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Collections: len(s.collections)}
	for _, c := range s.collections {
		st.Documents += len(c.docs)
	}
	st.FileSize = s.snapshotSize()
	return st
}

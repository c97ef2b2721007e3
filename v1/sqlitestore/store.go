package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

const providerName = "sqlite"

// Store implements [vectordb.Store] on a single SQLite database file.
// Vectors live in a BLOB column and similarity is computed in process,
// so it scales like the local store but shares state across processes
// and survives restarts without explicit snapshots.
//
// Equality predicates are pushed into SQL through json_extract; the
// remaining operators run client-side through the shared evaluator.
type Store struct {
	cfg      *Config
	db       *sql.DB
	embedder vectordb.Embedder
	logger   *zap.Logger
	now      func() time.Time
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

// New opens (or creates) the database and applies migrations.
func New(cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		return nil, vectordb.NewConfigError(providerName, "path", "missing")
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlitestore: creating database directory: %w", err)
			}
		}
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(" + strconv.Itoa(cfg.BusyTimeoutMS) + ")"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening %s: %w", cfg.Path, err)
	}
	// modernc's driver is not safe for concurrent writers on one
	// connection pool entry; a single connection sidesteps SQLITE_BUSY
	// for the write rates this store is built for.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		cfg:    cfg,
		db:     db,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Provider() string { return providerName }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) collectionDimension(ctx context.Context, name string) (int, bool, error) {
	var dim int
	err := s.db.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, vectordb.WrapBackendError(providerName, "get_collection", err)
	}
	return dim, true, nil
}

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	dim, exists, err := s.collectionDimension(ctx, name)
	if err != nil {
		return err
	}
	if err := vectordb.ValidateDocuments(docs, dim); err != nil {
		return fmt.Errorf("sqlitestore: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "begin", err)
	}
	defer tx.Rollback()

	now := s.now().UnixMilli()
	switch {
	case !exists:
		dim = len(docs[0].Embedding)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections (name, dimension, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			name, dim, now, now); err != nil {
			return vectordb.WrapBackendError(providerName, "create_collection", err)
		}
	case dim == 0:
		// Collection was created without a dimension; the first insert
		// pins it.
		dim = len(docs[0].Embedding)
		if _, err := tx.ExecContext(ctx,
			`UPDATE collections SET dimension = ? WHERE name = ?`, dim, name); err != nil {
			return vectordb.WrapBackendError(providerName, "set_dimension", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, content, metadata, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			content    = excluded.content,
			metadata   = excluded.metadata,
			embedding  = excluded.embedding,
			updated_at = excluded.updated_at`)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "prepare_upsert", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if len(d.Embedding) != dim {
			return fmt.Errorf("sqlitestore: document %q: embedding has %d dimensions, collection %q expects %d",
				d.ID, len(d.Embedding), name, dim)
		}
		var meta any
		if d.Metadata != nil {
			encoded, err := json.Marshal(d.Metadata)
			if err != nil {
				return fmt.Errorf("sqlitestore: encoding metadata for %q: %w", d.ID, err)
			}
			meta = string(encoded)
		}
		if _, err := stmt.ExecContext(ctx, name, d.ID, d.Content, meta, encodeVector(d.Embedding), now, now); err != nil {
			return vectordb.WrapBackendError(providerName, "upsert", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE collections SET updated_at = ? WHERE name = ?`, now, name); err != nil {
		return vectordb.WrapBackendError(providerName, "touch_collection", err)
	}
	if err := tx.Commit(); err != nil {
		return vectordb.WrapBackendError(providerName, "commit", err)
	}

	s.logger.Debug("documents upserted",
		zap.String("collection", name),
		zap.Int("count", len(docs)))
	return nil
}

func (s *Store) AddDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs)
}

// UpdateDocuments shares upsert semantics with AddDocuments; the
// ON CONFLICT clause keeps created_at from the original row.
func (s *Store) UpdateDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs)
}

func (s *Store) DeleteDocuments(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "begin", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "prepare_delete", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, name, id); err != nil {
			return vectordb.WrapBackendError(providerName, "delete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return vectordb.WrapBackendError(providerName, "commit", err)
	}
	return nil
}

func (s *Store) DeleteAllDocuments(ctx context.Context, name string) (int64, error) {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return 0, err
	} else if !exists {
		return 0, vectordb.ErrCollectionNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, name)
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "delete_all", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "delete_all", err)
	}
	return removed, nil
}

type row struct {
	doc   vectordb.Document
	rowid int64
}

// queryRows fetches documents for a collection with an optional
// compiled where clause, streaming and post-filtering as it goes.
func (s *Store) queryRows(ctx context.Context, name string, wc whereClause, nativeSQL string,
	predicates []vectordb.Predicate, mode vectordb.FilterMode,
	afterRowid int64, limit int, withVectors bool) ([]row, bool, error) {

	query := `SELECT rowid, id, content, metadata, embedding FROM documents WHERE collection = ?`
	args := []any{name}
	if wc.SQL != "" {
		query += ` AND ` + wc.SQL
		args = append(args, wc.Args...)
	}
	if nativeSQL != "" {
		query += ` AND (` + nativeSQL + `)`
	}
	if afterRowid > 0 {
		query += ` AND rowid > ?`
		args = append(args, afterRowid)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, vectordb.WrapBackendError(providerName, "query", err)
	}
	defer rows.Close()

	// Re-check everything client-side unless the clause covered the
	// whole filter. A verbatim native fragment never exempts the
	// predicates.
	postFilter := !wc.Native || nativeSQL != ""

	var (
		out  []row
		more bool
	)
	for rows.Next() {
		var (
			r        row
			meta     sql.NullString
			embedded []byte
		)
		if err := rows.Scan(&r.rowid, &r.doc.ID, &r.doc.Content, &meta, &embedded); err != nil {
			return nil, false, vectordb.WrapBackendError(providerName, "scan", err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &r.doc.Metadata); err != nil {
				return nil, false, fmt.Errorf("sqlitestore: decoding metadata for %q: %w", r.doc.ID, err)
			}
		}
		if postFilter && !vectordb.Evaluate(r.doc.Metadata, predicates, mode) {
			continue
		}
		if withVectors {
			if r.doc.Embedding, err = decodeVector(embedded); err != nil {
				return nil, false, err
			}
		}
		if limit > 0 && len(out) == limit {
			more = true
			break
		}
		out = append(out, r)
	}
	return out, more, rows.Err()
}

func (s *Store) nativeFragment(nf any) (string, error) {
	if nf == nil {
		return "", nil
	}
	frag, ok := nf.(string)
	if !ok {
		return "", vectordb.NewConfigError(providerName, "native_filter",
			fmt.Sprintf("expected a SQL fragment string, got %T", nf))
	}
	return frag, nil
}

func (s *Store) search(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return vectordb.Page{}, err
	} else if !exists {
		return vectordb.Page{}, vectordb.ErrCollectionNotFound
	}
	nativeSQL, err := s.nativeFragment(opts.NativeFilter)
	if err != nil {
		return vectordb.Page{}, err
	}

	wc := compileWhere(opts.Predicates, opts.Mode)
	rows, _, err := s.queryRows(ctx, name, wc, nativeSQL, opts.Predicates, opts.Mode, 0, 0, true)
	if err != nil {
		return vectordb.Page{}, err
	}

	scored := make([]vectordb.SearchResult, 0, len(rows))
	for _, r := range rows {
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

func (s *Store) ScrollDocuments(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return vectordb.ScrollResult{}, err
	} else if !exists {
		return vectordb.ScrollResult{}, vectordb.ErrCollectionNotFound
	}

	var after int64
	if req.Offset != "" {
		n, err := strconv.ParseInt(req.Offset, 10, 64)
		if err != nil || n < 0 {
			return vectordb.ScrollResult{}, fmt.Errorf("sqlitestore: invalid scroll offset %q", req.Offset)
		}
		after = n
	}
	limit := req.Limit
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}

	wc := compileWhere(req.Predicates, req.Mode)
	rows, more, err := s.queryRows(ctx, name, wc, "", req.Predicates, req.Mode, after, limit, req.WithEmbeddings)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}
	total, err := s.CountDocuments(ctx, name, req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	res := vectordb.ScrollResult{Documents: make([]vectordb.Document, 0, len(rows)), Total: total, HasMore: more}
	for _, r := range rows {
		res.Documents = append(res.Documents, r.doc)
	}
	if more && len(rows) > 0 {
		res.NextOffset = strconv.FormatInt(rows[len(rows)-1].rowid, 10)
	}
	return res, nil
}

func (s *Store) GetDocuments(ctx context.Context, name string, ids []string) ([]vectordb.Document, error) {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return nil, err
	} else if !exists {
		return nil, vectordb.ErrCollectionNotFound
	}
	docs := make([]vectordb.Document, 0, len(ids))
	for _, id := range ids {
		var (
			d        vectordb.Document
			meta     sql.NullString
			embedded []byte
		)
		err := s.db.QueryRowContext(ctx,
			`SELECT id, content, metadata, embedding FROM documents WHERE collection = ? AND id = ?`,
			name, id).Scan(&d.ID, &d.Content, &meta, &embedded)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, vectordb.WrapBackendError(providerName, "get", err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &d.Metadata); err != nil {
				return nil, fmt.Errorf("sqlitestore: decoding metadata for %q: %w", id, err)
			}
		}
		if d.Embedding, err = decodeVector(embedded); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Store) CountDocuments(ctx context.Context, name string, predicates []vectordb.Predicate, mode vectordb.FilterMode) (int64, error) {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return 0, err
	} else if !exists {
		return 0, vectordb.ErrCollectionNotFound
	}

	wc := compileWhere(predicates, mode)
	if wc.Native {
		query := `SELECT COUNT(*) FROM documents WHERE collection = ?`
		args := []any{name}
		if wc.SQL != "" {
			query += ` AND ` + wc.SQL
			args = append(args, wc.Args...)
		}
		var n int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return 0, vectordb.WrapBackendError(providerName, "count", err)
		}
		return n, nil
	}

	rows, _, err := s.queryRows(ctx, name, wc, "", predicates, mode, 0, 0, false)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, opts vectordb.CreateCollectionOptions) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if dim, exists, err := s.collectionDimension(ctx, name); err != nil {
		return err
	} else if exists {
		// Re-creating with the same dimension is a no-op; only a
		// conflicting dimension is an error.
		if opts.Dimension > 0 && dim > 0 && opts.Dimension != dim {
			return vectordb.NewConfigError(providerName, "dimension",
				fmt.Sprintf("collection %q has dimension %d, requested %d", name, dim, opts.Dimension))
		}
		return nil
	}
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimension, description, embedding_model, embedding_provider, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, opts.Dimension, opts.Description, opts.EmbeddingModel, opts.EmbeddingProvider, now, now)
	return vectordb.WrapBackendError(providerName, "create_collection", err)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if _, exists, err := s.collectionDimension(ctx, name); err != nil {
		return err
	} else if !exists {
		return vectordb.ErrCollectionNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "begin", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, name); err != nil {
		return vectordb.WrapBackendError(providerName, "delete_documents", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return vectordb.WrapBackendError(providerName, "delete_collection", err)
	}
	return vectordb.WrapBackendError(providerName, "commit", tx.Commit())
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "list_collections", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, vectordb.WrapBackendError(providerName, "scan", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	info := &vectordb.CollectionInfo{Name: name, Metric: "cosine"}
	var createdMS, updatedMS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT dimension, description, embedding_model, embedding_provider, created_at, updated_at
		 FROM collections WHERE name = ?`, name).
		Scan(&info.Dimension, &info.Description, &info.EmbeddingModel, &info.EmbeddingProvider, &createdMS, &updatedMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vectordb.ErrCollectionNotFound
	}
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "get_collection", err)
	}
	info.CreatedAt = createdMS / 1000
	info.UpdatedAt = updatedMS / 1000
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, name).Scan(&info.Count); err != nil {
		return nil, vectordb.WrapBackendError(providerName, "count", err)
	}
	return info, nil
}

// ── Optional Capabilities ────────────────────────────────────────────────────

func (s *Store) RenameCollection(ctx context.Context, oldName, newName string) error {
	if err := vectordb.ValidateCollectionName(newName); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if _, exists, err := s.collectionDimension(ctx, oldName); err != nil {
		return err
	} else if !exists {
		return vectordb.ErrCollectionNotFound
	}
	if _, exists, err := s.collectionDimension(ctx, newName); err != nil {
		return err
	} else if exists {
		return vectordb.ErrCollectionExists
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "begin", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`UPDATE collections SET name = ?, updated_at = ? WHERE name = ?`,
		newName, s.now().UnixMilli(), oldName); err != nil {
		return vectordb.WrapBackendError(providerName, "rename_collection", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET collection = ? WHERE collection = ?`, newName, oldName); err != nil {
		return vectordb.WrapBackendError(providerName, "rename_documents", err)
	}
	return vectordb.WrapBackendError(providerName, "commit", tx.Commit())
}

func (s *Store) TruncateCollection(ctx context.Context, name string) (int64, error) {
	return s.DeleteAllDocuments(ctx, name)
}

func (s *Store) ExportCollection(ctx context.Context, name string) (*vectordb.CollectionDump, error) {
	dim, exists, err := s.collectionDimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, vectordb.ErrCollectionNotFound
	}
	rows, _, err := s.queryRows(ctx, name, whereClause{Native: true}, "", nil, vectordb.FilterAnd, 0, 0, true)
	if err != nil {
		return nil, err
	}
	dump := &vectordb.CollectionDump{Name: name, Dimension: dim, Documents: make([]vectordb.Document, 0, len(rows))}
	for _, r := range rows {
		dump.Documents = append(dump.Documents, r.doc)
	}
	return dump, nil
}

func (s *Store) ImportCollection(ctx context.Context, dump *vectordb.CollectionDump) error {
	if dump == nil {
		return fmt.Errorf("sqlitestore: nil dump")
	}
	if _, exists, err := s.collectionDimension(ctx, dump.Name); err != nil {
		return err
	} else if !exists {
		if err := s.CreateCollection(ctx, dump.Name, vectordb.CreateCollectionOptions{Dimension: dump.Dimension}); err != nil {
			return err
		}
	}
	if len(dump.Documents) == 0 {
		return nil
	}
	return s.upsert(ctx, dump.Name, dump.Documents)
}

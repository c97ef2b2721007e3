package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   STORE OPERATIONS
// ──────────────────────────────────────────────────────────────
//

const (
	// overfetch sizing for threshold-filtered searches.
	overfetchFactor = 4
	minCandidates   = 64
	maxCandidates   = 1024

	// HNSW build parameters.
	hnswM              = 16
	hnswEfConstruction = 200
)

var outputFields = []string{fieldID, fieldContent, fieldMetadata}

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if err := vectordb.ValidateDocuments(docs, 0); err != nil {
		return fmt.Errorf("milvus: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}

	dim := len(docs[0].Embedding)
	for i, batch := range vectordb.ChunkDocuments(docs, s.cfg.BatchSize) {
		var (
			ids      = make([]string, 0, len(batch))
			contents = make([]string, 0, len(batch))
			metas    = make([][]byte, 0, len(batch))
			vectors  = make([][]float32, 0, len(batch))
		)
		for _, d := range batch {
			meta, err := encodeMetadata(d.Metadata)
			if err != nil {
				return vectordb.WrapBackendError(providerName, "encode_metadata",
					fmt.Errorf("document %q: %w", d.ID, err))
			}
			ids = append(ids, d.ID)
			contents = append(contents, d.Content)
			metas = append(metas, meta)
			vectors = append(vectors, d.Embedding)
		}

		_, err := api.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(name).WithColumns(
			column.NewColumnVarChar(fieldID, ids),
			column.NewColumnVarChar(fieldContent, contents),
			column.NewColumnJSONBytes(fieldMetadata, metas),
			column.NewColumnFloatVector(fieldVector, dim, vectors),
		))
		if err != nil {
			return vectordb.WrapBackendError(providerName, fmt.Sprintf("upsert batch %d", i), err)
		}
		s.logger.Debug("batch upserted",
			zap.String("collection", name),
			zap.Int("batch", i),
			zap.Int("size", len(batch)))
	}
	return nil
}

func (s *Store) AddDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs)
}

// UpdateDocuments shares upsert semantics with AddDocuments.
func (s *Store) UpdateDocuments(ctx context.Context, name string, docs []vectordb.Document) error {
	return s.upsert(ctx, name, docs)
}

func (s *Store) DeleteDocuments(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	_, err = api.Delete(ctx, milvusclient.NewDeleteOption(name).
		WithExpr(fieldID+" in "+stringList(ids)))
	return vectordb.WrapBackendError(providerName, "delete", err)
}

func (s *Store) DeleteAllDocuments(ctx context.Context, name string) (int64, error) {
	api, err := s.client(ctx)
	if err != nil {
		return 0, err
	}
	removed, err := s.CountDocuments(ctx, name, nil, vectordb.FilterAnd)
	if err != nil {
		return 0, err
	}
	_, err = api.Delete(ctx, milvusclient.NewDeleteOption(name).WithExpr(fieldID+` != ""`))
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "delete_all", err)
	}
	return removed, nil
}

// fetchLimit sizes the candidate query. Thresholds discard results
// after the fetch, so that path over-fetches by a bounded factor.
func fetchLimit(opts vectordb.SearchOptions) int {
	limit := opts.Limit
	if limit <= 0 {
		limit = opts.TopK
	}
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}
	need := opts.Offset + limit
	if opts.TopK > need {
		need = opts.TopK
	}
	if opts.Threshold != nil {
		need *= overfetchFactor
		if need < minCandidates {
			need = minCandidates
		}
		if need > maxCandidates {
			need = maxCandidates
		}
	}
	return need
}

func (s *Store) search(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	api, err := s.client(ctx)
	if err != nil {
		return vectordb.Page{}, err
	}

	expr, err := compileExpr(opts.Predicates, opts.Mode)
	if err != nil {
		return vectordb.Page{}, err
	}
	if opts.NativeFilter != nil {
		native, ok := opts.NativeFilter.(string)
		if !ok {
			return vectordb.Page{}, vectordb.NewConfigError(providerName, "native_filter",
				fmt.Sprintf("expected a Milvus expression string, got %T", opts.NativeFilter))
		}
		if expr != "" {
			expr = "(" + expr + ") and (" + native + ")"
		} else {
			expr = native
		}
	}

	option := milvusclient.NewSearchOption(name, fetchLimit(opts), []entity.Vector{entity.FloatVector(embedding)}).
		WithANNSField(fieldVector).
		WithOutputFields(outputFields...)
	if expr != "" {
		option = option.WithFilter(expr)
	}

	resultSets, err := api.Search(ctx, option)
	if err != nil {
		return vectordb.Page{}, vectordb.WrapBackendError(providerName, "search", err)
	}

	var results []vectordb.SearchResult
	for _, rs := range resultSets {
		docs, err := documentsFromResultSet(rs, false)
		if err != nil {
			return vectordb.Page{}, err
		}
		for i, doc := range docs {
			score := float32(0)
			if i < len(rs.Scores) {
				// COSINE similarity, already higher-is-better.
				score = rs.Scores[i]
			}
			results = append(results, vectordb.SearchResult{Document: doc, Score: score})
		}
	}

	return vectordb.Paginate(results, vectordb.PageOptions{
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

// ScrollDocuments pages with a numeric offset cursor on top of Milvus
// query pagination. Predicates compile into the query filter, so
// every page is exactly Limit documents until the stream ends.
func (s *Store) ScrollDocuments(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	api, err := s.client(ctx)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}
	offset := 0
	if req.Offset != "" {
		offset, err = strconv.Atoi(req.Offset)
		if err != nil || offset < 0 {
			return vectordb.ScrollResult{}, vectordb.NewConfigError(providerName, "offset",
				fmt.Sprintf("invalid cursor %q", req.Offset))
		}
	}

	expr, err := compileExpr(req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	fields := outputFields
	if req.WithEmbeddings {
		fields = append(append([]string{}, outputFields...), fieldVector)
	}

	option := milvusclient.NewQueryOption(name).
		WithOutputFields(fields...).
		WithOffset(offset).
		WithLimit(limit + 1) // one extra row signals another page
	if expr != "" {
		option = option.WithFilter(expr)
	}

	rs, err := api.Query(ctx, option)
	if err != nil {
		return vectordb.ScrollResult{}, vectordb.WrapBackendError(providerName, "scroll", err)
	}
	docs, err := documentsFromResultSet(rs, req.WithEmbeddings)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}
	total, err := s.CountDocuments(ctx, name, req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	res := vectordb.ScrollResult{Documents: docs, Total: total}
	if len(docs) > limit {
		res.Documents = docs[:limit]
		res.HasMore = true
		res.NextOffset = strconv.Itoa(offset + limit)
	}
	return res, nil
}

func (s *Store) GetDocuments(ctx context.Context, name string, ids []string) ([]vectordb.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	expr := fieldID + " in " + stringList(ids)
	rs, err := api.Query(ctx, milvusclient.NewQueryOption(name).
		WithFilter(expr).
		WithOutputFields(append(append([]string{}, outputFields...), fieldVector)...))
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "get", err)
	}
	docs, err := documentsFromResultSet(rs, true)
	if err != nil {
		return nil, err
	}

	// Restore request order; Milvus does not guarantee it.
	byID := make(map[string]vectordb.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	ordered := make([]vectordb.Document, 0, len(docs))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			ordered = append(ordered, doc)
		}
	}
	return ordered, nil
}

func (s *Store) CountDocuments(ctx context.Context, name string, predicates []vectordb.Predicate, mode vectordb.FilterMode) (int64, error) {
	api, err := s.client(ctx)
	if err != nil {
		return 0, err
	}
	expr, err := compileExpr(predicates, mode)
	if err != nil {
		return 0, err
	}

	option := milvusclient.NewQueryOption(name).WithOutputFields("count(*)")
	if expr != "" {
		option = option.WithFilter(expr)
	}
	rs, err := api.Query(ctx, option)
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "count", err)
	}
	col := rs.GetColumn("count(*)")
	if col == nil || col.Len() == 0 {
		return 0, nil
	}
	count, err := col.GetAsInt64(0)
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "count", err)
	}
	return count, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string, opts vectordb.CreateCollectionOptions) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if opts.Dimension <= 0 {
		return vectordb.NewConfigError(providerName, "dimension", "must be positive")
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}

	exists, err := api.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return vectordb.WrapBackendError(providerName, "has_collection", err)
	}
	if exists {
		return vectordb.ErrCollectionExists
	}

	if err := api.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name,
		collectionSchema(name, opts.Dimension))); err != nil {
		return vectordb.WrapBackendError(providerName, "create_collection", err)
	}

	indexTask, err := api.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, fieldVector,
		index.NewHNSWIndex(entity.COSINE, hnswM, hnswEfConstruction)))
	if err != nil {
		return vectordb.WrapBackendError(providerName, "create_index", err)
	}
	if err := indexTask.Await(ctx); err != nil {
		return vectordb.WrapBackendError(providerName, "create_index", err)
	}

	loadTask, err := api.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return vectordb.WrapBackendError(providerName, "load_collection", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return vectordb.WrapBackendError(providerName, "load_collection", err)
	}

	s.logger.Info("collection created",
		zap.String("collection", name),
		zap.Int("dimension", opts.Dimension))
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	exists, err := api.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return vectordb.WrapBackendError(providerName, "has_collection", err)
	}
	if !exists {
		return vectordb.ErrCollectionNotFound
	}
	return vectordb.WrapBackendError(providerName, "drop_collection",
		api.DropCollection(ctx, milvusclient.NewDropCollectionOption(name)))
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	names, err := api.ListCollections(ctx, milvusclient.NewListCollectionOption())
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "list_collections", err)
	}
	return names, nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := api.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "has_collection", err)
	}
	if !exists {
		return nil, vectordb.ErrCollectionNotFound
	}

	desc, err := api.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(name))
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "describe_collection", err)
	}

	dim := 0
	if desc != nil && desc.Schema != nil {
		for _, f := range desc.Schema.Fields {
			if f.Name != fieldVector {
				continue
			}
			if raw, ok := f.TypeParams[entity.TypeParamDim]; ok {
				if n, err := strconv.Atoi(raw); err == nil {
					dim = n
				}
			}
		}
	}

	count, err := s.CountDocuments(ctx, name, nil, vectordb.FilterAnd)
	if err != nil {
		return nil, err
	}

	return &vectordb.CollectionInfo{
		Name:      name,
		Dimension: dim,
		Count:     count,
		Metric:    string(entity.COSINE),
	}, nil
}

// stringList renders a quoted expression list for primary key lookups.
func stringList(values []string) string {
	out := "["
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += quoteString(v)
	}
	return out + "]"
}

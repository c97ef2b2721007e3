package pinecone

import (
	"context"
	"fmt"
	"sort"

	pc "github.com/pinecone-io/go-pinecone/v3/pinecone"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   STORE OPERATIONS
// ──────────────────────────────────────────────────────────────
//

const (
	// listPageSize is Pinecone's maximum page size for ID listing.
	listPageSize = 100
	// overfetch sizing for post-filtered searches.
	overfetchFactor = 4
	minCandidates   = 64
	maxCandidates   = 1000 // Pinecone caps TopK at 10000; stay modest
)

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if err := vectordb.ValidateDocuments(docs, 0); err != nil {
		return fmt.Errorf("pinecone: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return err
	}

	for i, batch := range vectordb.ChunkDocuments(docs, s.cfg.BatchSize) {
		vectors := make([]*pc.Vector, 0, len(batch))
		for _, d := range batch {
			md, err := toMetadata(d)
			if err != nil {
				return vectordb.WrapBackendError(providerName, "encode_metadata",
					fmt.Errorf("document %q: %w", d.ID, err))
			}
			values := d.Embedding
			vectors = append(vectors, &pc.Vector{
				Id:       d.ID,
				Values:   &values,
				Metadata: md,
			})
		}
		if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
			return vectordb.WrapBackendError(providerName, fmt.Sprintf("upsert batch %d", i), err)
		}
		s.logger.Debug("batch upserted",
			zap.String("namespace", name),
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
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return err
	}
	return vectordb.WrapBackendError(providerName, "delete", conn.DeleteVectorsById(ctx, ids))
}

func (s *Store) DeleteAllDocuments(ctx context.Context, name string) (int64, error) {
	var removed int64
	if stats, err := s.indexStats(ctx); err == nil {
		if ns, ok := stats.Namespaces[name]; ok {
			removed = int64(ns.VectorCount)
		}
	}
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := conn.DeleteAllVectorsInNamespace(ctx); err != nil {
		return 0, vectordb.WrapBackendError(providerName, "delete_all", err)
	}
	return removed, nil
}

// fetchLimit sizes the candidate query. Post-filtering and thresholds
// both discard results after the fetch, so those paths over-fetch by a
// bounded factor rather than risking starved pages.
func fetchLimit(opts vectordb.SearchOptions, post bool) uint32 {
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
	if post || opts.Threshold != nil {
		need *= overfetchFactor
		if need < minCandidates {
			need = minCandidates
		}
		if need > maxCandidates {
			need = maxCandidates
		}
	}
	return uint32(need)
}

func (s *Store) search(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return vectordb.Page{}, err
	}

	tr := compileFilter(opts.Predicates, opts.Mode)
	filter := tr.Filter
	post := tr.PostFilter
	if opts.NativeFilter != nil {
		native, ok := opts.NativeFilter.(*pc.MetadataFilter)
		if !ok {
			return vectordb.Page{}, vectordb.NewConfigError(providerName, "native_filter",
				fmt.Sprintf("expected *pinecone.MetadataFilter, got %T", opts.NativeFilter))
		}
		// Verbatim filters replace the compiled one; predicates move
		// entirely client-side.
		filter = native
		post = len(opts.Predicates) > 0
	}

	resp, err := conn.QueryByVectorValues(ctx, &pc.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            fetchLimit(opts, post),
		MetadataFilter:  filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return vectordb.Page{}, vectordb.WrapBackendError(providerName, "query", err)
	}

	results := make([]vectordb.SearchResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Vector == nil {
			continue
		}
		doc := fromMetadata(m.Vector.Id, m.Vector.Metadata)
		results = append(results, vectordb.SearchResult{Document: doc, Score: m.Score})
	}
	if post {
		results = vectordb.FilterResults(results, opts.Predicates, opts.Mode)
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

// ScrollDocuments pages through a namespace using Pinecone's ID list
// endpoint. Predicate filtering happens client-side after the fetch,
// so a filtered page may hold fewer than Limit documents; callers keep
// paging while HasMore is set.
func (s *Store) ScrollDocuments(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}
	if limit > listPageSize {
		limit = listPageSize
	}

	listReq := &pc.ListVectorsRequest{}
	pageSize := uint32(limit)
	listReq.Limit = &pageSize
	if req.Offset != "" {
		token := req.Offset
		listReq.PaginationToken = &token
	}

	listResp, err := conn.ListVectors(ctx, listReq)
	if err != nil {
		return vectordb.ScrollResult{}, vectordb.WrapBackendError(providerName, "list", err)
	}
	total, err := s.CountDocuments(ctx, name, req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	ids := make([]string, 0, len(listResp.VectorIds))
	for _, id := range listResp.VectorIds {
		if id != nil {
			ids = append(ids, *id)
		}
	}

	res := vectordb.ScrollResult{Documents: make([]vectordb.Document, 0, len(ids)), Total: total}
	if listResp.NextPaginationToken != nil {
		res.HasMore = true
		res.NextOffset = *listResp.NextPaginationToken
	}
	if len(ids) == 0 {
		return res, nil
	}

	fetched, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return vectordb.ScrollResult{}, vectordb.WrapBackendError(providerName, "fetch", err)
	}

	for _, id := range ids {
		v, ok := fetched.Vectors[id]
		if !ok {
			continue
		}
		doc := fromMetadata(id, v.Metadata)
		if len(req.Predicates) > 0 && !vectordb.Evaluate(doc.Metadata, req.Predicates, req.Mode) {
			continue
		}
		if req.WithEmbeddings {
			doc.Embedding = vectorValues(v)
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

func (s *Store) GetDocuments(ctx context.Context, name string, ids []string) ([]vectordb.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return nil, err
	}
	fetched, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "fetch", err)
	}

	docs := make([]vectordb.Document, 0, len(fetched.Vectors))
	for _, id := range ids {
		v, ok := fetched.Vectors[id]
		if !ok {
			continue
		}
		doc := fromMetadata(id, v.Metadata)
		doc.Embedding = vectorValues(v)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) CountDocuments(ctx context.Context, name string, predicates []vectordb.Predicate, mode vectordb.FilterMode) (int64, error) {
	if len(predicates) == 0 {
		stats, err := s.indexStats(ctx)
		if err != nil {
			return 0, err
		}
		ns, ok := stats.Namespaces[name]
		if !ok {
			return 0, nil
		}
		return int64(ns.VectorCount), nil
	}

	// Pinecone has no filtered count; stream the namespace and count
	// through the evaluator.
	conn, err := s.namespace(ctx, name)
	if err != nil {
		return 0, err
	}
	var (
		count int64
		token *string
	)
	for {
		pageSize := uint32(listPageSize)
		listResp, err := conn.ListVectors(ctx, &pc.ListVectorsRequest{
			Limit:           &pageSize,
			PaginationToken: token,
		})
		if err != nil {
			return 0, vectordb.WrapBackendError(providerName, "count_scan", err)
		}
		ids := make([]string, 0, len(listResp.VectorIds))
		for _, id := range listResp.VectorIds {
			if id != nil {
				ids = append(ids, *id)
			}
		}
		if len(ids) > 0 {
			fetched, err := conn.FetchVectors(ctx, ids)
			if err != nil {
				return 0, vectordb.WrapBackendError(providerName, "count_fetch", err)
			}
			for _, v := range fetched.Vectors {
				doc := fromMetadata(v.Id, v.Metadata)
				if vectordb.Evaluate(doc.Metadata, predicates, mode) {
					count++
				}
			}
		}
		if listResp.NextPaginationToken == nil {
			return count, nil
		}
		token = listResp.NextPaginationToken
	}
}

// CreateCollection ensures the backing serverless index exists and
// that the namespace does not. Pinecone materializes namespaces on
// first write, so an empty collection is indistinguishable from a
// missing one until documents arrive.
func (s *Store) CreateCollection(ctx context.Context, name string, opts vectordb.CreateCollectionOptions) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if opts.Dimension <= 0 {
		return vectordb.NewConfigError(providerName, "dimension", "must be positive")
	}
	api, err := s.client()
	if err != nil {
		return err
	}

	idx, err := api.DescribeIndex(ctx, s.cfg.IndexName)
	if err != nil {
		// Assume the index is missing and create it.
		dimension := int32(opts.Dimension)
		metric := pc.Cosine
		_, err = api.CreateServerlessIndex(ctx, &pc.CreateServerlessIndexRequest{
			Name:      s.cfg.IndexName,
			Dimension: &dimension,
			Metric:    &metric,
			Cloud:     pc.Cloud(s.cfg.Cloud),
			Region:    s.cfg.Region,
		})
		if err != nil {
			return vectordb.WrapBackendError(providerName, "create_index", err)
		}
		s.invalidateHost()
		s.logger.Info("serverless index created",
			zap.String("index", s.cfg.IndexName),
			zap.Int("dimension", opts.Dimension))
		return nil
	}

	if idx.Dimension != nil && int(*idx.Dimension) != opts.Dimension {
		return vectordb.NewConfigError(providerName, "dimension",
			fmt.Sprintf("index %q has dimension %d, requested %d",
				s.cfg.IndexName, *idx.Dimension, opts.Dimension))
	}

	stats, err := s.indexStats(ctx)
	if err != nil {
		return err
	}
	if _, ok := stats.Namespaces[name]; ok {
		return vectordb.ErrCollectionExists
	}
	return nil
}

// DeleteCollection removes the namespace by deleting every vector in
// it; Pinecone drops empty namespaces automatically.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	stats, err := s.indexStats(ctx)
	if err != nil {
		return err
	}
	if _, ok := stats.Namespaces[name]; !ok {
		return vectordb.ErrCollectionNotFound
	}
	_, err = s.DeleteAllDocuments(ctx, name)
	return err
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	stats, err := s.indexStats(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats.Namespaces))
	for ns := range stats.Namespaces {
		if ns == "" {
			continue
		}
		names = append(names, ns)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	stats, err := s.indexStats(ctx)
	if err != nil {
		return nil, err
	}
	ns, ok := stats.Namespaces[name]
	if !ok {
		return nil, vectordb.ErrCollectionNotFound
	}
	dim := 0
	if stats.Dimension != nil {
		dim = int(*stats.Dimension)
	}
	return &vectordb.CollectionInfo{
		Name:      name,
		Dimension: dim,
		Count:     int64(ns.VectorCount),
		Metric:    string(pc.Cosine),
	}, nil
}

// indexStats fetches index-wide statistics through the base namespace
// connection.
func (s *Store) indexStats(ctx context.Context) (*pc.DescribeIndexStatsResponse, error) {
	conn, err := s.namespace(ctx, "")
	if err != nil {
		return nil, err
	}
	stats, err := conn.DescribeIndexStats(ctx)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "index_stats", err)
	}
	return stats, nil
}

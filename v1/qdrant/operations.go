package qdrant

import (
	"context"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   STORE OPERATIONS
// ──────────────────────────────────────────────────────────────
//

const (
	// scrollBatch is the page size for raw candidate scans.
	scrollBatch = 256
	// overfetch sizing for post-filtered searches.
	overfetchFactor = 4
	minCandidates   = 64
	maxCandidates   = 1024
)

// mapError converts SDK failures into the shared taxonomy.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return vectordb.ErrCollectionNotFound
	}
	return vectordb.WrapBackendError(providerName, op, err)
}

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if err := vectordb.ValidateDocuments(docs, 0); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}

	wait := true
	for i, batch := range vectordb.ChunkDocuments(docs, s.cfg.BatchSize) {
		points := make([]*qdrant.PointStruct, 0, len(batch))
		for _, d := range batch {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(pointID(d.ID)),
				Vectors: qdrant.NewVectors(d.Embedding...),
				Payload: qdrant.NewValueMap(toPayload(d)),
			})
		}
		if _, err := api.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Points:         points,
			Wait:           &wait,
		}); err != nil {
			return mapError(fmt.Sprintf("upsert batch %d", i), err)
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
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(pointID(id)))
	}
	wait := true
	_, err = api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: &wait,
	})
	return mapError("delete", err)
}

func (s *Store) DeleteAllDocuments(ctx context.Context, name string) (int64, error) {
	api, err := s.client(ctx)
	if err != nil {
		return 0, err
	}
	exact := true
	count, err := api.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, mapError("delete_all_count", err)
	}
	wait := true
	_, err = api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{},
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return 0, mapError("delete_all", err)
	}
	return int64(count), nil
}

// fetchLimit sizes the candidate query. Post-filtering and thresholds
// both discard results after the fetch, so those paths over-fetch by a
// bounded factor rather than risking starved pages.
func fetchLimit(opts vectordb.SearchOptions, post bool) uint64 {
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
	return uint64(need)
}

func (s *Store) search(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	api, err := s.client(ctx)
	if err != nil {
		return vectordb.Page{}, err
	}

	tr := compileFilter(opts.Predicates, opts.Mode)
	filter := tr.Filter
	post := tr.PostFilter
	if opts.NativeFilter != nil {
		native, ok := opts.NativeFilter.(*qdrant.Filter)
		if !ok {
			return vectordb.Page{}, vectordb.NewConfigError(providerName, "native_filter",
				fmt.Sprintf("expected *qdrant.Filter, got %T", opts.NativeFilter))
		}
		// Verbatim filters replace the compiled one; predicates move
		// entirely client-side.
		filter = native
		post = len(opts.Predicates) > 0
	}

	limit := fetchLimit(opts, post)
	resp, err := api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         filter,
	})
	if err != nil {
		return vectordb.Page{}, mapError("search", err)
	}

	results := make([]vectordb.SearchResult, 0, len(resp))
	for _, r := range resp {
		doc := fromPayload(r.GetPayload(), scoredPointID(r.GetId()))
		// Cosine scores from Qdrant are already higher-is-better.
		results = append(results, vectordb.SearchResult{Document: doc, Score: r.GetScore()})
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

func (s *Store) ScrollDocuments(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	api, err := s.client(ctx)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = vectordb.DefaultLimit
	}
	tr := compileFilter(req.Predicates, req.Mode)
	total, err := s.CountDocuments(ctx, name, req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	var (
		res    = vectordb.ScrollResult{Documents: make([]vectordb.Document, 0, limit), Total: total}
		cursor = req.Offset
		// NextOffset names the first point that was not returned, and
		// Qdrant's scroll offset is inclusive, so a resumed scroll emits
		// the cursor point itself. Skipping only happens on the internal
		// page hops below, where the cursor was already emitted.
		skip = false
	)

	for {
		scroll := &qdrant.ScrollPoints{
			CollectionName: name,
			Filter:         tr.Filter,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(req.WithEmbeddings),
		}
		batch := uint32(scrollBatch)
		scroll.Limit = &batch
		if cursor != "" {
			scroll.Offset = qdrant.NewID(cursor)
		}

		points, err := api.Scroll(ctx, scroll)
		if err != nil {
			return vectordb.ScrollResult{}, mapError("scroll", err)
		}

		for _, p := range points {
			pid := scoredPointID(p.GetId())
			if skip {
				skip = false
				if pid == cursor {
					continue
				}
			}
			doc := fromPayload(p.GetPayload(), pid)
			if tr.PostFilter && !vectordb.Evaluate(doc.Metadata, req.Predicates, req.Mode) {
				continue
			}
			if len(res.Documents) == limit {
				res.HasMore = true
				res.NextOffset = pid
				return res, nil
			}
			if req.WithEmbeddings {
				doc.Embedding = vectorData(p.GetVectors())
			}
			res.Documents = append(res.Documents, doc)
		}

		if len(points) < scrollBatch {
			return res, nil
		}
		cursor = scoredPointID(points[len(points)-1].GetId())
		skip = true
	}
}

func (s *Store) GetDocuments(ctx context.Context, name string, ids []string) ([]vectordb.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(pointID(id)))
	}
	points, err := api.Get(ctx, &qdrant.GetPoints{
		CollectionName: name,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, mapError("get", err)
	}

	// Restore request order; Qdrant does not guarantee it.
	byID := make(map[string]vectordb.Document, len(points))
	for _, p := range points {
		doc := fromPayload(p.GetPayload(), scoredPointID(p.GetId()))
		doc.Embedding = vectorData(p.GetVectors())
		byID[doc.ID] = doc
	}
	docs := make([]vectordb.Document, 0, len(points))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *Store) CountDocuments(ctx context.Context, name string, predicates []vectordb.Predicate, mode vectordb.FilterMode) (int64, error) {
	api, err := s.client(ctx)
	if err != nil {
		return 0, err
	}

	tr := compileFilter(predicates, mode)
	if !tr.PostFilter {
		exact := true
		n, err := api.Count(ctx, &qdrant.CountPoints{
			CollectionName: name,
			Filter:         tr.Filter,
			Exact:          &exact,
		})
		if err != nil {
			return 0, mapError("count", err)
		}
		return int64(n), nil
	}

	// Inexpressible filter: stream the collection and count through
	// the evaluator.
	var (
		count  int64
		cursor string
		skip   bool
	)
	for {
		scroll := &qdrant.ScrollPoints{
			CollectionName: name,
			Filter:         tr.Filter,
			WithPayload:    qdrant.NewWithPayload(true),
		}
		batch := uint32(scrollBatch)
		scroll.Limit = &batch
		if cursor != "" {
			scroll.Offset = qdrant.NewID(cursor)
		}
		points, err := api.Scroll(ctx, scroll)
		if err != nil {
			return 0, mapError("count_scan", err)
		}
		for _, p := range points {
			pid := scoredPointID(p.GetId())
			if skip {
				skip = false
				if pid == cursor {
					continue
				}
			}
			doc := fromPayload(p.GetPayload(), pid)
			if vectordb.Evaluate(doc.Metadata, predicates, mode) {
				count++
			}
		}
		if len(points) < scrollBatch {
			return count, nil
		}
		cursor = scoredPointID(points[len(points)-1].GetId())
		skip = true
	}
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

	exists, err := api.CollectionExists(ctx, name)
	if err != nil {
		return mapError("collection_exists", err)
	}
	if exists {
		return vectordb.ErrCollectionExists
	}

	err = api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(opts.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return mapError("create_collection", err)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	exists, err := api.CollectionExists(ctx, name)
	if err != nil {
		return mapError("collection_exists", err)
	}
	if !exists {
		return vectordb.ErrCollectionNotFound
	}
	return mapError("delete_collection", api.DeleteCollection(ctx, name))
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	names, err := api.ListCollections(ctx)
	if err != nil {
		return nil, mapError("list_collections", err)
	}
	return names, nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := api.CollectionExists(ctx, name)
	if err != nil {
		return nil, mapError("collection_exists", err)
	}
	if !exists {
		return nil, vectordb.ErrCollectionNotFound
	}
	info, err := api.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, mapError("get_collection_info", err)
	}

	size, distance := extractVectorDetails(info)
	return &vectordb.CollectionInfo{
		Name:      name,
		Dimension: size,
		Count:     int64(derefUint64(info.PointsCount)),
		Metric:    distance,
	}, nil
}

// extractVectorDetails safely extracts the vector size and distance
// metric from Qdrant's nested collection config, guarding the oneof
// wrappers against nil dereferences.
func extractVectorDetails(info *qdrant.CollectionInfo) (int, string) {
	if info == nil ||
		info.Config == nil ||
		info.Config.Params == nil ||
		info.Config.Params.VectorsConfig == nil ||
		info.Config.Params.VectorsConfig.Config == nil {
		return 0, ""
	}
	if cfg, ok := info.Config.Params.VectorsConfig.Config.(*qdrant.VectorsConfig_Params); ok {
		return int(cfg.Params.Size), cfg.Params.Distance.String()
	}
	return 0, ""
}

// derefUint64 safely dereferences a *uint64 pointer.
func derefUint64(v *uint64) uint64 {
	if v != nil {
		return *v
	}
	return 0
}

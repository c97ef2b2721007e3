package weaviate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   STORE OPERATIONS
// ──────────────────────────────────────────────────────────────
//

const (
	// overfetch sizing for post-filtered searches.
	overfetchFactor = 4
	minCandidates   = 64
	maxCandidates   = 1024
)

func baseFields(withVector bool) []graphql.Field {
	additional := []graphql.Field{{Name: "id"}, {Name: "distance"}}
	if withVector {
		additional = append(additional, graphql.Field{Name: "vector"})
	}
	return []graphql.Field{
		{Name: propID},
		{Name: propContent},
		{Name: propMeta},
		{Name: "_additional", Fields: additional},
	}
}

func (s *Store) upsert(ctx context.Context, name string, docs []vectordb.Document) error {
	if err := vectordb.ValidateCollectionName(name); err != nil {
		return vectordb.NewConfigError(providerName, "collection", err.Error())
	}
	if err := vectordb.ValidateDocuments(docs, 0); err != nil {
		return fmt.Errorf("weaviate: %w", err)
	}
	if err := vectordb.EnsureEmbeddings(ctx, s.embedder, docs); err != nil {
		return err
	}
	api, err := s.client(ctx)
	if err != nil {
		return err
	}

	for i, batch := range vectordb.ChunkDocuments(docs, s.cfg.BatchSize) {
		objects := make([]*models.Object, 0, len(batch))
		for _, d := range batch {
			obj, err := toObject(name, d)
			if err != nil {
				return vectordb.WrapBackendError(providerName, "encode_object", err)
			}
			objects = append(objects, obj)
		}
		resp, err := api.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return vectordb.WrapBackendError(providerName, fmt.Sprintf("upsert batch %d", i), err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return vectordb.WrapBackendError(providerName, fmt.Sprintf("upsert batch %d", i),
					errors.New(r.Result.Errors.Error[0].Message))
			}
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
	for _, id := range ids {
		err := api.Data().Deleter().
			WithClassName(className(name)).
			WithID(string(objectID(name, id))).
			Do(ctx)
		if err != nil && !isNotFound(err) {
			return vectordb.WrapBackendError(providerName, "delete", err)
		}
	}
	return nil
}

func (s *Store) DeleteAllDocuments(ctx context.Context, name string) (int64, error) {
	api, err := s.client(ctx)
	if err != nil {
		return 0, err
	}
	// Batch delete needs a where clause; a wildcard on the ID property
	// matches every object in the class.
	matchAll := filters.Where().
		WithPath([]string{propID}).
		WithOperator(filters.Like).
		WithValueText("*")
	resp, err := api.Batch().ObjectsBatchDeleter().
		WithClassName(className(name)).
		WithWhere(matchAll).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return 0, vectordb.WrapBackendError(providerName, "delete_all", err)
	}
	var removed int64
	if resp != nil && resp.Results != nil {
		removed = resp.Results.Matches
	}
	return removed, nil
}

// fetchLimit sizes the candidate query. Post-filtering and thresholds
// both discard results after the fetch, so those paths over-fetch by a
// bounded factor rather than risking starved pages.
func fetchLimit(opts vectordb.SearchOptions, post bool) int {
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
	return need
}

func (s *Store) search(ctx context.Context, name string, embedding []float32, opts vectordb.SearchOptions) (vectordb.Page, error) {
	api, err := s.client(ctx)
	if err != nil {
		return vectordb.Page{}, err
	}

	tr := compileFilter(opts.Predicates, opts.Mode)
	where := tr.Where
	post := tr.PostFilter
	if opts.NativeFilter != nil {
		native, ok := opts.NativeFilter.(*filters.WhereBuilder)
		if !ok {
			return vectordb.Page{}, vectordb.NewConfigError(providerName, "native_filter",
				fmt.Sprintf("expected *filters.WhereBuilder, got %T", opts.NativeFilter))
		}
		// Verbatim filters replace the compiled one; predicates move
		// entirely client-side.
		where = native
		post = len(opts.Predicates) > 0
	}

	query := api.GraphQL().Get().
		WithClassName(className(name)).
		WithFields(baseFields(false)...).
		WithNearVector(api.GraphQL().NearVectorArgBuilder().WithVector(embedding)).
		WithLimit(fetchLimit(opts, post))
	if where != nil {
		query = query.WithWhere(where)
	}

	rows, err := s.doGet(ctx, query, name, "search")
	if err != nil {
		return vectordb.Page{}, err
	}

	results := make([]vectordb.SearchResult, 0, len(rows))
	for _, row := range rows {
		doc := fromProps(row)
		score := float32(0)
		if additional, ok := row["_additional"].(map[string]any); ok {
			if d, ok := additional["distance"].(float64); ok {
				score = vectordb.ScoreFromCosineDistance(float32(d))
			}
		}
		results = append(results, vectordb.SearchResult{Document: doc, Score: score})
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

// ScrollDocuments pages with a numeric offset cursor over the class.
// The offset indexes the natively filtered stream; predicates beyond
// the native filter run client-side per page, so a filtered page may
// hold fewer than Limit documents. Keep paging while HasMore is set.
func (s *Store) ScrollDocuments(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
	res, err := s.scrollPage(ctx, name, req)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}
	res.Total, err = s.CountDocuments(ctx, name, req.Predicates, req.Mode)
	if err != nil {
		return vectordb.ScrollResult{}, err
	}
	return res, nil
}

// scrollPage fetches one raw page. CountDocuments drives it directly
// for inexpressible filters, where the total is the thing being
// computed.
func (s *Store) scrollPage(ctx context.Context, name string, req vectordb.ScrollRequest) (vectordb.ScrollResult, error) {
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

	tr := compileFilter(req.Predicates, req.Mode)
	query := api.GraphQL().Get().
		WithClassName(className(name)).
		WithFields(baseFields(req.WithEmbeddings)...).
		WithOffset(offset).
		WithLimit(limit + 1) // one extra row signals another page
	if tr.Where != nil {
		query = query.WithWhere(tr.Where)
	}

	rows, err := s.doGet(ctx, query, name, "scroll")
	if err != nil {
		return vectordb.ScrollResult{}, err
	}

	res := vectordb.ScrollResult{Documents: make([]vectordb.Document, 0, limit)}
	if len(rows) > limit {
		rows = rows[:limit]
		res.HasMore = true
		res.NextOffset = strconv.Itoa(offset + limit)
	}
	for _, row := range rows {
		doc := fromProps(row)
		if tr.PostFilter && !vectordb.Evaluate(doc.Metadata, req.Predicates, req.Mode) {
			continue
		}
		if req.WithEmbeddings {
			if additional, ok := row["_additional"].(map[string]any); ok {
				doc.Embedding = vectorFromAdditional(additional)
			}
		}
		res.Documents = append(res.Documents, doc)
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

	docs := make([]vectordb.Document, 0, len(ids))
	for _, id := range ids {
		objects, err := api.Data().ObjectsGetter().
			WithClassName(className(name)).
			WithID(string(objectID(name, id))).
			WithVector().
			Do(ctx)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, vectordb.WrapBackendError(providerName, "get", err)
		}
		for _, obj := range objects {
			props, ok := obj.Properties.(map[string]any)
			if !ok {
				continue
			}
			doc := fromProps(props)
			doc.Embedding = []float32(obj.Vector)
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
		agg := api.GraphQL().Aggregate().
			WithClassName(className(name)).
			WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}})
		if tr.Where != nil {
			agg = agg.WithWhere(tr.Where)
		}
		resp, err := agg.Do(ctx)
		if err != nil {
			return 0, vectordb.WrapBackendError(providerName, "count", err)
		}
		if err := graphQLErrors(resp); err != nil {
			return 0, vectordb.WrapBackendError(providerName, "count", err)
		}
		return aggregateCount(resp, className(name))
	}

	// Inexpressible filter: stream the class and count through the
	// evaluator.
	var (
		count  int64
		cursor string
	)
	for {
		res, err := s.scrollPage(ctx, name, vectordb.ScrollRequest{
			Limit:      maxCandidates,
			Offset:     cursor,
			Predicates: predicates,
			Mode:       mode,
		})
		if err != nil {
			return 0, err
		}
		count += int64(len(res.Documents))
		if !res.HasMore {
			return count, nil
		}
		cursor = res.NextOffset
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

	cls := className(name)
	exists, err := api.Schema().ClassExistenceChecker().WithClassName(cls).Do(ctx)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "class_exists", err)
	}
	if exists {
		return vectordb.ErrCollectionExists
	}

	text := []string{"text"}
	class := &models.Class{
		Class:           cls,
		Description:     encodeClassMeta(classMeta{Name: name, Dimension: opts.Dimension}),
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]any{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: propID, DataType: text},
			{Name: propContent, DataType: text},
			{Name: propMeta, DataType: text},
		},
	}
	if err := api.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return vectordb.WrapBackendError(providerName, "create_class", err)
	}

	s.logger.Info("class created",
		zap.String("collection", name),
		zap.String("class", cls),
		zap.Int("dimension", opts.Dimension))
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	cls := className(name)
	exists, err := api.Schema().ClassExistenceChecker().WithClassName(cls).Do(ctx)
	if err != nil {
		return vectordb.WrapBackendError(providerName, "class_exists", err)
	}
	if !exists {
		return vectordb.ErrCollectionNotFound
	}
	return vectordb.WrapBackendError(providerName, "delete_class",
		api.Schema().ClassDeleter().WithClassName(cls).Do(ctx))
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := api.Schema().Getter().Do(ctx)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "get_schema", err)
	}

	names := make([]string, 0, len(schema.Classes))
	for _, class := range schema.Classes {
		if meta, ok := decodeClassMeta(class.Description); ok {
			names = append(names, meta.Name)
			continue
		}
		names = append(names, class.Class)
	}
	return names, nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	cls := className(name)
	exists, err := api.Schema().ClassExistenceChecker().WithClassName(cls).Do(ctx)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "class_exists", err)
	}
	if !exists {
		return nil, vectordb.ErrCollectionNotFound
	}

	class, err := api.Schema().ClassGetter().WithClassName(cls).Do(ctx)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, "get_class", err)
	}

	dimension := 0
	if meta, ok := decodeClassMeta(class.Description); ok {
		dimension = meta.Dimension
	}

	count, err := s.CountDocuments(ctx, name, nil, vectordb.FilterAnd)
	if err != nil {
		return nil, err
	}

	return &vectordb.CollectionInfo{
		Name:      name,
		Dimension: dimension,
		Count:     count,
		Metric:    "cosine",
	}, nil
}

// doGet runs a GraphQL Get query and unwraps the rows for a class.
func (s *Store) doGet(ctx context.Context, query *graphql.GetBuilder, name, op string) ([]map[string]any, error) {
	resp, err := query.Do(ctx)
	if err != nil {
		return nil, vectordb.WrapBackendError(providerName, op, err)
	}
	if err := graphQLErrors(resp); err != nil {
		return nil, vectordb.WrapBackendError(providerName, op, err)
	}

	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	raw, ok := get[className(name)].([]any)
	if !ok {
		return nil, nil
	}

	rows := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if row, ok := r.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func graphQLErrors(resp *models.GraphQLResponse) error {
	if resp == nil || len(resp.Errors) == 0 {
		return nil
	}
	return errors.New(resp.Errors[0].Message)
}

func aggregateCount(resp *models.GraphQLResponse, cls string) (int64, error) {
	agg, ok := resp.Data["Aggregate"].(map[string]any)
	if !ok {
		return 0, nil
	}
	rows, ok := agg[cls].([]any)
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]any)
	if !ok {
		return 0, nil
	}
	meta, ok := row["meta"].(map[string]any)
	if !ok {
		return 0, nil
	}
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, nil
	}
	return int64(count), nil
}

// isNotFound reports whether the client error is a plain 404.
func isNotFound(err error) bool {
	var clientErr *fault.WeaviateClientError
	return errors.As(err, &clientErr) && clientErr.StatusCode == 404
}

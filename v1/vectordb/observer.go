package vectordb

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// OperationContext carries everything an observer needs to record one
// store operation.
type OperationContext struct {
	Provider   string
	Operation  string
	Collection string
	Duration   time.Duration
	Error      error
	// Size is the number of documents or results the operation touched,
	// -1 when not applicable.
	Size int64
}

// Observer receives a callback after every store operation.
type Observer interface {
	ObserveOperation(octx OperationContext)
}

// MetricsObserver records operations as Prometheus metrics.
type MetricsObserver struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batchSize  *prometheus.HistogramVec
}

// NewMetricsObserver builds an observer and registers its collectors
// with reg. A nil reg uses the default registerer.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &MetricsObserver{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectordb_operations_total",
			Help: "Vector store operations by provider, operation and status.",
		}, []string{"provider", "operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vectordb_operation_duration_seconds",
			Help:    "Vector store operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vectordb_operation_size",
			Help:    "Documents or results touched per operation.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"provider", "operation"}),
	}
	reg.MustRegister(o.operations, o.duration, o.batchSize)
	return o
}

func (o *MetricsObserver) ObserveOperation(octx OperationContext) {
	status := "ok"
	if octx.Error != nil {
		status = "error"
	}
	o.operations.WithLabelValues(octx.Provider, octx.Operation, status).Inc()
	o.duration.WithLabelValues(octx.Provider, octx.Operation).Observe(octx.Duration.Seconds())
	if octx.Size >= 0 {
		o.batchSize.WithLabelValues(octx.Provider, octx.Operation).Observe(float64(octx.Size))
	}
}

// InstrumentedStore decorates a Store with tracing and observer
// callbacks. It implements Store and forwards the optional
// capabilities of the wrapped store.
type InstrumentedStore struct {
	inner    Store
	observer Observer
	tracer   trace.Tracer
}

// Instrument wraps store. observer may be nil to trace only; tracer
// may be nil to observe only.
func Instrument(store Store, observer Observer, tracer trace.Tracer) *InstrumentedStore {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("vectordb")
	}
	return &InstrumentedStore{inner: store, observer: observer, tracer: tracer}
}

// Unwrap returns the wrapped store, for capability type assertions.
func (s *InstrumentedStore) Unwrap() Store { return s.inner }

func (s *InstrumentedStore) Provider() string { return s.inner.Provider() }

func (s *InstrumentedStore) observe(ctx context.Context, op, collection string, size func() int64, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "vectordb."+op,
		trace.WithAttributes(
			attribute.String("db.system", s.inner.Provider()),
			attribute.String("db.collection", collection),
		))
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if s.observer != nil {
		n := int64(-1)
		if size != nil {
			n = size()
		}
		s.observer.ObserveOperation(OperationContext{
			Provider:   s.inner.Provider(),
			Operation:  op,
			Collection: collection,
			Duration:   elapsed,
			Error:      err,
			Size:       n,
		})
	}
	return err
}

func (s *InstrumentedStore) AddDocuments(ctx context.Context, collection string, docs []Document) error {
	return s.observe(ctx, "add_documents", collection,
		func() int64 { return int64(len(docs)) },
		func(ctx context.Context) error { return s.inner.AddDocuments(ctx, collection, docs) })
}

func (s *InstrumentedStore) UpdateDocuments(ctx context.Context, collection string, docs []Document) error {
	return s.observe(ctx, "update_documents", collection,
		func() int64 { return int64(len(docs)) },
		func(ctx context.Context) error { return s.inner.UpdateDocuments(ctx, collection, docs) })
}

func (s *InstrumentedStore) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	return s.observe(ctx, "delete_documents", collection,
		func() int64 { return int64(len(ids)) },
		func(ctx context.Context) error { return s.inner.DeleteDocuments(ctx, collection, ids) })
}

func (s *InstrumentedStore) DeleteAllDocuments(ctx context.Context, collection string) (int64, error) {
	var removed int64
	err := s.observe(ctx, "delete_all_documents", collection,
		func() int64 { return removed },
		func(ctx context.Context) error {
			var err error
			removed, err = s.inner.DeleteAllDocuments(ctx, collection)
			return err
		})
	return removed, err
}

func (s *InstrumentedStore) SearchDocuments(ctx context.Context, collection, query string, opts SearchOptions) ([]SearchResult, error) {
	var results []SearchResult
	err := s.observe(ctx, "search_documents", collection,
		func() int64 { return int64(len(results)) },
		func(ctx context.Context) error {
			var err error
			results, err = s.inner.SearchDocuments(ctx, collection, query, opts)
			return err
		})
	return results, err
}

func (s *InstrumentedStore) SearchByEmbedding(ctx context.Context, collection string, embedding []float32, opts SearchOptions) ([]SearchResult, error) {
	var results []SearchResult
	err := s.observe(ctx, "search_by_embedding", collection,
		func() int64 { return int64(len(results)) },
		func(ctx context.Context) error {
			var err error
			results, err = s.inner.SearchByEmbedding(ctx, collection, embedding, opts)
			return err
		})
	return results, err
}

func (s *InstrumentedStore) SearchDocumentsWithTotal(ctx context.Context, collection, query string, opts SearchOptions) (Page, error) {
	var page Page
	err := s.observe(ctx, "search_documents_with_total", collection,
		func() int64 { return int64(len(page.Results)) },
		func(ctx context.Context) error {
			var err error
			page, err = s.inner.SearchDocumentsWithTotal(ctx, collection, query, opts)
			return err
		})
	return page, err
}

func (s *InstrumentedStore) ScrollDocuments(ctx context.Context, collection string, req ScrollRequest) (ScrollResult, error) {
	var res ScrollResult
	err := s.observe(ctx, "scroll_documents", collection,
		func() int64 { return int64(len(res.Documents)) },
		func(ctx context.Context) error {
			var err error
			res, err = s.inner.ScrollDocuments(ctx, collection, req)
			return err
		})
	return res, err
}

func (s *InstrumentedStore) GetDocuments(ctx context.Context, collection string, ids []string) ([]Document, error) {
	var docs []Document
	err := s.observe(ctx, "get_documents", collection,
		func() int64 { return int64(len(docs)) },
		func(ctx context.Context) error {
			var err error
			docs, err = s.inner.GetDocuments(ctx, collection, ids)
			return err
		})
	return docs, err
}

func (s *InstrumentedStore) CountDocuments(ctx context.Context, collection string, predicates []Predicate, mode FilterMode) (int64, error) {
	var count int64
	err := s.observe(ctx, "count_documents", collection,
		func() int64 { return count },
		func(ctx context.Context) error {
			var err error
			count, err = s.inner.CountDocuments(ctx, collection, predicates, mode)
			return err
		})
	return count, err
}

func (s *InstrumentedStore) CreateCollection(ctx context.Context, name string, opts CreateCollectionOptions) error {
	return s.observe(ctx, "create_collection", name, nil,
		func(ctx context.Context) error { return s.inner.CreateCollection(ctx, name, opts) })
}

func (s *InstrumentedStore) DeleteCollection(ctx context.Context, name string) error {
	return s.observe(ctx, "delete_collection", name, nil,
		func(ctx context.Context) error { return s.inner.DeleteCollection(ctx, name) })
}

func (s *InstrumentedStore) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.observe(ctx, "list_collections", "",
		func() int64 { return int64(len(names)) },
		func(ctx context.Context) error {
			var err error
			names, err = s.inner.ListCollections(ctx)
			return err
		})
	return names, err
}

func (s *InstrumentedStore) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	var info *CollectionInfo
	err := s.observe(ctx, "get_collection_info", name, nil,
		func(ctx context.Context) error {
			var err error
			info, err = s.inner.GetCollectionInfo(ctx, name)
			return err
		})
	return info, err
}

func (s *InstrumentedStore) Close() error { return s.inner.Close() }

// Capability forwarding. The decorator only exposes what the wrapped
// store actually supports.

func (s *InstrumentedStore) RenameCollection(ctx context.Context, oldName, newName string) error {
	r, ok := s.inner.(CollectionRenamer)
	if !ok {
		return ErrNotSupported
	}
	return s.observe(ctx, "rename_collection", oldName, nil,
		func(ctx context.Context) error { return r.RenameCollection(ctx, oldName, newName) })
}

func (s *InstrumentedStore) TruncateCollection(ctx context.Context, name string) (int64, error) {
	t, ok := s.inner.(CollectionTruncator)
	if !ok {
		return 0, ErrNotSupported
	}
	var removed int64
	err := s.observe(ctx, "truncate_collection", name,
		func() int64 { return removed },
		func(ctx context.Context) error {
			var err error
			removed, err = t.TruncateCollection(ctx, name)
			return err
		})
	return removed, err
}

func (s *InstrumentedStore) ExportCollection(ctx context.Context, name string) (*CollectionDump, error) {
	e, ok := s.inner.(CollectionExporter)
	if !ok {
		return nil, ErrNotSupported
	}
	var dump *CollectionDump
	err := s.observe(ctx, "export_collection", name,
		func() int64 {
			if dump == nil {
				return 0
			}
			return int64(len(dump.Documents))
		},
		func(ctx context.Context) error {
			var err error
			dump, err = e.ExportCollection(ctx, name)
			return err
		})
	return dump, err
}

func (s *InstrumentedStore) ImportCollection(ctx context.Context, dump *CollectionDump) error {
	i, ok := s.inner.(CollectionImporter)
	if !ok {
		return ErrNotSupported
	}
	name := ""
	if dump != nil {
		name = dump.Name
	}
	return s.observe(ctx, "import_collection", name,
		func() int64 {
			if dump == nil {
				return 0
			}
			return int64(len(dump.Documents))
		},
		func(ctx context.Context) error { return i.ImportCollection(ctx, dump) })
}

// Package store builds vector stores from a single discriminated
// configuration, so applications pick a backend with one field instead
// of importing adapter packages directly.
//
// # Usage
//
//	cfg := &store.Config{
//	    Provider: store.ProviderQdrant,
//	    Qdrant:   qdrant.FromEndpoint("localhost"),
//	}
//	s, err := store.New(cfg, store.WithEmbedder(embedder))
//	if err != nil {
//	    ...
//	}
//	defer s.Close()
//
// Supported providers: local (in-memory + JSON file), sqlite (embedded),
// qdrant, pinecone, milvus and weaviate. The factory validates the
// configuration up front; remote backends connect lazily on first use,
// so New never touches the network.
//
// # Environment configuration
//
// NewConfigFromEnv reads VECTORSTORE_PROVIDER and the selected
// backend's own variables (QDRANT_ENDPOINT, PINECONE_API_KEY, ...),
// falling back to the local store when no provider is set.
//
// # Instrumentation
//
// WithObserver and WithTracer wrap the built store so every operation
// is timed, counted and traced:
//
//	obs := vectordb.NewMetricsObserver(prometheus.DefaultRegisterer)
//	s, err := store.New(cfg, store.WithObserver(obs))
//
// # Dependency Injection (Fx)
//
// FXModule provides a ready vectordb.Store. The logger, embedder,
// observer and tracer are optional dependencies; whatever the
// application provides gets wired in, and a lifecycle hook closes the
// store on shutdown.
package store

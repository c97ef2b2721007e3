package qdrant

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// QdrantContainer represents a Qdrant container for testing
type QdrantContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupQdrantContainer sets up a Qdrant container for testing
func setupQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6334/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "qdrant/qdrant:v1.11.0",
		Env: map[string]string{
			"QDRANT__SERVICE__GRPC_PORT": "6334",
		},
		ExposedPorts: []string{"6334/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	instance, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	host, err := instance.Host(ctx)
	if err != nil {
		_ = instance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := instance.MappedPort(ctx, "6334")
	if err != nil {
		_ = instance.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	portStr = mappedPort.Port()

	if err := waitForQdrantReady(host, portStr, 30*time.Second); err != nil {
		_ = instance.Terminate(ctx)
		return nil, fmt.Errorf("qdrant container not ready: %w", err)
	}

	return &QdrantContainer{
		Container: instance,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		if err := addr.Close(); err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForQdrantReady attempts to connect to Qdrant until it's ready or times out
func waitForQdrantReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Qdrant to be ready after %s", timeout)
		}

		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

// fixedEmbedder returns canned vectors so search results are
// deterministic without a real model behind the tests.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, []float32{0.5, 0.5, 0.5, 0.5})
	}
	return out, nil
}

func (f *fixedEmbedder) Model() string { return "fixed-test-embedder" }

func TestQdrantStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupQdrantContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	t.Logf("Using Qdrant on %s:%s", containerInstance.Host, containerInstance.Port)

	portNum, err := strconv.Atoi(containerInstance.Port)
	require.NoError(t, err)

	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"intro to go":   {1, 0, 0, 0},
		"rust patterns": {0, 1, 0, 0},
		"go concurrency": {0.9, 0.1, 0, 0},
	}}

	var store *Store
	app := fxtest.New(t,
		fx.Provide(
			func() *Config {
				return &Config{
					Endpoint:  containerInstance.Host,
					Port:      portNum,
					Timeout:   10 * time.Second,
					BatchSize: defaultBatchSize,
				}
			},
			func() vectordb.Embedder { return embedder },
		),
		FXModule,
		fx.Populate(&store),
	)

	require.NoError(t, app.Start(ctx))
	defer func() { require.NoError(t, app.Stop(ctx)) }()

	require.NotNil(t, store)
	assert.Equal(t, "qdrant", store.Provider())

	const collection = "library"

	docs := []vectordb.Document{
		{
			ID:        "doc-go",
			Content:   "intro to go",
			Metadata:  map[string]any{"lang": "en", "pages": 120, "topic": "go"},
			Embedding: []float32{1, 0, 0, 0},
		},
		{
			ID:        "doc-rust",
			Content:   "rust patterns",
			Metadata:  map[string]any{"lang": "en", "pages": 300, "topic": "rust"},
			Embedding: []float32{0, 1, 0, 0},
		},
		{
			ID:        "doc-conc",
			Content:   "go concurrency",
			Metadata:  map[string]any{"lang": "de", "pages": 80, "topic": "go"},
			Embedding: []float32{0.9, 0.1, 0, 0},
		},
	}

	t.Run("CreateCollection", func(t *testing.T) {
		err := store.CreateCollection(ctx, collection, vectordb.CreateCollectionOptions{Dimension: 4})
		require.NoError(t, err)

		err = store.CreateCollection(ctx, collection, vectordb.CreateCollectionOptions{Dimension: 4})
		assert.ErrorIs(t, err, vectordb.ErrCollectionExists)

		err = store.CreateCollection(ctx, "bad", vectordb.CreateCollectionOptions{})
		assert.True(t, vectordb.IsConfigError(err))
	})

	t.Run("AddAndGet", func(t *testing.T) {
		require.NoError(t, store.AddDocuments(ctx, collection, docs))

		got, err := store.GetDocuments(ctx, collection, []string{"doc-rust", "doc-go"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Request order is preserved.
		assert.Equal(t, "doc-rust", got[0].ID)
		assert.Equal(t, "doc-go", got[1].ID)
		assert.Equal(t, "rust patterns", got[0].Content)
		assert.EqualValues(t, 300, got[0].Metadata["pages"])
		assert.Len(t, got[0].Embedding, 4)
	})

	t.Run("SearchByEmbedding", func(t *testing.T) {
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{TopK: 3})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "doc-go", results[0].Document.ID)
	})

	t.Run("SearchWithEmbedder", func(t *testing.T) {
		results, err := store.SearchDocuments(ctx, collection, "intro to go",
			vectordb.SearchOptions{TopK: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-go", results[0].Document.ID)
	})

	t.Run("SearchNativePredicates", func(t *testing.T) {
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.Eq("lang", "en")},
			})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "en", r.Document.Metadata["lang"])
		}
	})

	t.Run("SearchPostFilteredPredicates", func(t *testing.T) {
		// starts_with never translates; the evaluator trims candidates.
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.StartsWith("topic", "ru")},
			})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-rust", results[0].Document.ID)
	})

	t.Run("SearchNumericRange", func(t *testing.T) {
		results, err := store.SearchByEmbedding(ctx, collection, []float32{1, 0, 0, 0},
			vectordb.SearchOptions{
				TopK:       3,
				Predicates: []vectordb.Predicate{vectordb.Gte("pages", 100)},
			})
		require.NoError(t, err)
		require.Len(t, results, 2)
	})

	t.Run("SearchWithTotal", func(t *testing.T) {
		page, err := store.SearchDocumentsWithTotal(ctx, collection, "intro to go",
			vectordb.SearchOptions{TopK: 3, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "doc-go", page.Results[0].Document.ID)
	})

	t.Run("Scroll", func(t *testing.T) {
		seen := map[string]bool{}
		var cursor string
		for {
			res, err := store.ScrollDocuments(ctx, collection, vectordb.ScrollRequest{
				Limit:  2,
				Offset: cursor,
			})
			require.NoError(t, err)
			assert.EqualValues(t, 3, res.Total)
			for _, d := range res.Documents {
				assert.False(t, seen[d.ID], "document %s returned twice", d.ID)
				seen[d.ID] = true
			}
			if !res.HasMore {
				break
			}
			cursor = res.NextOffset
		}
		assert.Len(t, seen, 3)
	})

	// A limit of 1 forces a resume at every document, so any cursor
	// off-by-one drops or repeats a document.
	t.Run("ScrollSingleDocumentPages", func(t *testing.T) {
		seen := map[string]bool{}
		var cursor string
		pages := 0
		for {
			res, err := store.ScrollDocuments(ctx, collection, vectordb.ScrollRequest{
				Limit:  1,
				Offset: cursor,
			})
			require.NoError(t, err)
			require.LessOrEqual(t, len(res.Documents), 1)
			for _, d := range res.Documents {
				assert.False(t, seen[d.ID], "document %s returned twice", d.ID)
				seen[d.ID] = true
			}
			pages++
			require.LessOrEqual(t, pages, 10, "scroll did not terminate")
			if !res.HasMore {
				break
			}
			cursor = res.NextOffset
		}
		assert.Len(t, seen, 3)
	})

	t.Run("ScrollFiltered", func(t *testing.T) {
		res, err := store.ScrollDocuments(ctx, collection, vectordb.ScrollRequest{
			Limit:      10,
			Predicates: []vectordb.Predicate{vectordb.Eq("topic", "go")},
		})
		require.NoError(t, err)
		assert.Len(t, res.Documents, 2)
		assert.False(t, res.HasMore)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := store.CountDocuments(ctx, collection, nil, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		n, err = store.CountDocuments(ctx, collection,
			[]vectordb.Predicate{vectordb.Eq("lang", "en")}, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		// Client-side counting path.
		n, err = store.CountDocuments(ctx, collection,
			[]vectordb.Predicate{vectordb.Contains("topic", "us")}, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("UpdateDocuments", func(t *testing.T) {
		updated := docs[0]
		updated.Metadata = map[string]any{"lang": "en", "pages": 150, "topic": "go"}
		require.NoError(t, store.UpdateDocuments(ctx, collection, []vectordb.Document{updated}))

		got, err := store.GetDocuments(ctx, collection, []string{"doc-go"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.EqualValues(t, 150, got[0].Metadata["pages"])
	})

	t.Run("CollectionInfo", func(t *testing.T) {
		info, err := store.GetCollectionInfo(ctx, collection)
		require.NoError(t, err)
		assert.Equal(t, collection, info.Name)
		assert.Equal(t, 4, info.Dimension)
		assert.EqualValues(t, 3, info.Count)

		_, err = store.GetCollectionInfo(ctx, "missing")
		assert.ErrorIs(t, err, vectordb.ErrCollectionNotFound)
	})

	t.Run("ListCollections", func(t *testing.T) {
		names, err := store.ListCollections(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, collection)
	})

	t.Run("DeleteDocuments", func(t *testing.T) {
		require.NoError(t, store.DeleteDocuments(ctx, collection, []string{"doc-rust"}))

		got, err := store.GetDocuments(ctx, collection, []string{"doc-rust"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DeleteAllDocuments", func(t *testing.T) {
		removed, err := store.DeleteAllDocuments(ctx, collection)
		require.NoError(t, err)
		assert.EqualValues(t, 2, removed)

		n, err := store.CountDocuments(ctx, collection, nil, vectordb.FilterAnd)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("DeleteCollection", func(t *testing.T) {
		require.NoError(t, store.DeleteCollection(ctx, collection))
		assert.ErrorIs(t, store.DeleteCollection(ctx, collection), vectordb.ErrCollectionNotFound)
	})
}

func TestPointIDDeterministic(t *testing.T) {
	a := pointID("doc-1")
	b := pointID("doc-1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, pointID("doc-2"))

	// UUIDs pass through unchanged.
	const id = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	assert.Equal(t, id, pointID(id))
}

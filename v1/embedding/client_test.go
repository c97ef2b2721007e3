package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embedServer returns a stub /embeddings endpoint that answers every input
// text with a two-dimensional vector derived from the request order. It
// records the batches it receives so tests can assert on batching behavior.
func embedServer(t *testing.T, batches *[][]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/embeddings", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Model)

		*batches = append(*batches, req.Input)

		type datum struct {
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []datum `json:"data"`
		}{}
		for i := range req.Input {
			resp.Data = append(resp.Data, datum{Embedding: []float32{float32(i), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClientEmbed(t *testing.T) {
	var batches [][]string
	srv := embedServer(t, &batches)
	defer srv.Close()

	client, err := NewClient(&Config{
		Endpoint:     srv.URL,
		Model:        "test-model",
		HTTPTimeoutS: 5,
		MaxBatch:     64,
	})
	require.NoError(t, err)
	defer client.Close()

	vectors, err := client.Embed(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[2])

	require.Len(t, batches, 1)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, batches[0])
	assert.Equal(t, "test-model", client.Model())
}

func TestClientEmbedBatching(t *testing.T) {
	var batches [][]string
	srv := embedServer(t, &batches)
	defer srv.Close()

	client, err := NewClient(&Config{
		Endpoint:     srv.URL,
		Model:        "test-model",
		HTTPTimeoutS: 5,
		MaxBatch:     2,
	})
	require.NoError(t, err)

	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := client.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a", "b"}, batches[0])
	assert.Equal(t, []string{"c", "d"}, batches[1])
	assert.Equal(t, []string{"e"}, batches[2])
}

func TestClientEmbedEmptyInput(t *testing.T) {
	client, err := NewClient(&Config{
		Endpoint: "http://localhost:1",
		Model:    "test-model",
	})
	require.NoError(t, err)

	vectors, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestClientEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		Endpoint:     srv.URL,
		Model:        "test-model",
		HTTPTimeoutS: 5,
	})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClientEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1,2]}]}`)
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		Endpoint:     srv.URL,
		Model:        "test-model",
		HTTPTimeoutS: 5,
	})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"alpha", "beta"})
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Endpoint: "http://inference:8080", Model: "m"}, false},
		{"missing endpoint", Config{Model: "m"}, true},
		{"missing model", Config{Endpoint: "http://inference:8080"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

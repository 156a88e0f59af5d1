package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nickcecere/ldebate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelDimensions(t *testing.T) {
	tests := []struct {
		model    string
		expected int
	}{
		{"all-minilm", 384},
		{"nomic-embed-text", 768},
		{"mxbai-embed-large", 1024},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"unknown-model", 0},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetModelDimensions(tt.model))
		})
	}
}

func TestNewOllamaService(t *testing.T) {
	t.Run("with default URL", func(t *testing.T) {
		svc, err := NewOllamaService("", "all-minilm")
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:11434", svc.baseURL)
		assert.Equal(t, 384, svc.Dimensions())
		assert.Equal(t, ProviderOllama, svc.Provider())
		assert.Equal(t, "all-minilm", svc.ModelName())
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		svc, err := NewOllamaService("http://custom:8080/", "mxbai-embed-large")
		require.NoError(t, err)
		assert.Equal(t, "http://custom:8080", svc.baseURL)
	})

	t.Run("requires model", func(t *testing.T) {
		_, err := NewOllamaService("", "")
		assert.Error(t, err)
	})
}

func TestNewOpenAIService(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewOpenAIService("", "text-embedding-3-small", "", 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("with known model dimensions", func(t *testing.T) {
		svc, err := NewOpenAIService("sk-test", "text-embedding-3-small", "", 0)
		require.NoError(t, err)

		assert.Equal(t, 1536, svc.Dimensions())
		assert.Equal(t, ProviderOpenAI, svc.Provider())
	})

	t.Run("with custom dimensions", func(t *testing.T) {
		svc, err := NewOpenAIService("sk-test", "text-embedding-3-large", "", 512)
		require.NoError(t, err)
		assert.Equal(t, 512, svc.Dimensions())
	})
}

func TestOllamaTaskPrefixes(t *testing.T) {
	nomic, _ := NewOllamaService("", "nomic-embed-text")
	assert.Equal(t, "search_document: doc", nomic.applyPrefix("doc", false))
	assert.Equal(t, "search_query: q", nomic.applyPrefix("q", true))

	mxbai, _ := NewOllamaService("", "mxbai-embed-large")
	assert.Equal(t, "doc", mxbai.applyPrefix("doc", false))
	assert.Equal(t, "Represent this sentence for searching relevant passages: q", mxbai.applyPrefix("q", true))

	minilm, _ := NewOllamaService("", "all-minilm")
	assert.Equal(t, "doc", minilm.applyPrefix("doc", false))
	assert.Equal(t, "q", minilm.applyPrefix("q", true))
}

// mockOllamaServer simulates Ollama's embed API with predictable vectors.
func mockOllamaServer(t *testing.T, dims int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollamaEmbedRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dims)
			for j := range vec {
				vec[j] = float32(i+1) * 0.1
			}
			embeddings[i] = vec
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: embeddings})
	}))
}

func TestOllamaEmbed(t *testing.T) {
	server := mockOllamaServer(t, 384)
	defer server.Close()

	svc, err := NewOllamaService(server.URL, "all-minilm")
	require.NoError(t, err)

	t.Run("Embed single text", func(t *testing.T) {
		vec, err := svc.Embed(context.Background(), "market entry plan")
		require.NoError(t, err)
		assert.Len(t, vec, 384)
		assert.Equal(t, float32(0.1), vec[0])
	})

	t.Run("EmbedQuery single text", func(t *testing.T) {
		vec, err := svc.EmbedQuery(context.Background(), "should we expand?")
		require.NoError(t, err)
		assert.Len(t, vec, 384)
	})

	t.Run("EmbedBatch keeps order", func(t *testing.T) {
		vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		for i, vec := range vectors {
			assert.Equal(t, float32(i+1)*0.1, vec[0])
		}
	})

	t.Run("EmbedBatch empty returns nil", func(t *testing.T) {
		vectors, err := svc.EmbedBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})
}

func TestOllamaErrorHandling(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("model not found"))
		}))
		defer server.Close()

		svc, _ := NewOllamaService(server.URL, "all-minilm")
		_, err := svc.Embed(context.Background(), "test")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("empty embeddings", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"embeddings":[]}`))
		}))
		defer server.Close()

		svc, _ := NewOllamaService(server.URL, "all-minilm")
		_, err := svc.Embed(context.Background(), "test")
		assert.ErrorIs(t, err, ErrNoEmbedding)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		svc, _ := NewOllamaService(server.URL, "all-minilm")
		_, err := svc.Embed(context.Background(), "test")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := mockOllamaServer(t, 4)
		defer server.Close()

		svc, _ := NewOllamaService(server.URL, "all-minilm")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Embed(ctx, "test")
		assert.Error(t, err)
	})
}

func TestOllamaDimensionUpdate(t *testing.T) {
	server := mockOllamaServer(t, 512)
	defer server.Close()

	svc, _ := NewOllamaService(server.URL, "all-minilm")
	assert.Equal(t, 384, svc.Dimensions())

	_, err := svc.Embed(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 512, svc.Dimensions())
}

func TestOpenAIEmbedAgainstMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		// Answer in reverse order to check index placement
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i), 1, 0},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIService("sk-test", "text-embedding-3-small", server.URL+"/v1/", 0)
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 1, 0}, vectors[0])
	assert.Equal(t, []float32{1, 1, 0}, vectors[1])
	assert.Equal(t, 3, svc.Dimensions())
}

// countingService records batch sizes for EmbedInBatches.
type countingService struct {
	mu      sync.Mutex
	batches []int
	failAt  int
}

func (c *countingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (c *countingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (c *countingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, len(texts))
	if c.failAt > 0 && len(c.batches) == c.failAt {
		return nil, errors.New("boom")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (c *countingService) Dimensions() int { return 1 }
func (c *countingService) Provider() Provider { return "fake" }
func (c *countingService) ModelName() string { return "fake" }

func TestEmbedInBatches(t *testing.T) {
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("%0*d", i+1, 0)
	}

	t.Run("splits into batches in order", func(t *testing.T) {
		svc := &countingService{}
		vectors, err := EmbedInBatches(context.Background(), svc, texts, 3)
		require.NoError(t, err)

		assert.Equal(t, []int{3, 3, 1}, svc.batches)
		require.Len(t, vectors, 7)
		for i, vec := range vectors {
			assert.Equal(t, float32(i+1), vec[0])
		}
	})

	t.Run("zero batch size sends one request", func(t *testing.T) {
		svc := &countingService{}
		_, err := EmbedInBatches(context.Background(), svc, texts, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{7}, svc.batches)
	})

	t.Run("propagates failures", func(t *testing.T) {
		svc := &countingService{failAt: 2}
		_, err := EmbedInBatches(context.Background(), svc, texts, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("empty input", func(t *testing.T) {
		vectors, err := EmbedInBatches(context.Background(), &countingService{}, nil, 3)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})
}

func TestNewService(t *testing.T) {
	t.Run("creates Ollama service", func(t *testing.T) {
		cfg := config.DefaultConfig()

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, svc.Provider())
		assert.Equal(t, config.DefaultOllamaEmbedModel, svc.ModelName())
	})

	t.Run("creates OpenAI service", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Embeddings.Provider = "openai"
		cfg.Embeddings.OpenAI.APIKey = "sk-test"

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, svc.Provider())
	})

	t.Run("returns error for unsupported provider", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Embeddings.Provider = "unsupported"

		_, err := NewService(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported embedding provider")
	})
}

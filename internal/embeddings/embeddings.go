// Package embeddings turns document and query text into dense vectors for
// the knowledge base.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickcecere/ldebate/internal/config"
)

// Provider represents an embedding provider type.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// ErrNoEmbedding is returned when a provider answers without any vectors.
var ErrNoEmbedding = errors.New("no embedding returned")

// Service defines the interface for embedding services.
//
// Implementations must be safe for concurrent use: the knowledge base embeds
// queries while a rebuild may be embedding documents.
type Service interface {
	// Embed generates an embedding for document text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery generates an embedding for a search query. Some models use
	// a different task prefix for queries.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple document texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimensions for this model.
	Dimensions() int

	Provider() Provider
	ModelName() string
}

// Known model dimensions
var modelDimensions = map[string]int{
	// Ollama models
	"all-minilm":             384,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"snowflake-arctic-embed": 1024,

	// OpenAI models
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// GetModelDimensions returns the known dimensions for a model, or 0 if unknown.
func GetModelDimensions(model string) int {
	return modelDimensions[model]
}

// NewService creates an embedding service based on the configuration.
func NewService(cfg *config.Config) (Service, error) {
	switch Provider(cfg.Embeddings.Provider) {
	case ProviderOllama:
		return NewOllamaService(cfg.Embeddings.Ollama.URL, cfg.Embeddings.Ollama.Model)
	case ProviderOpenAI:
		return NewOpenAIService(
			cfg.Embeddings.OpenAI.APIKey,
			cfg.Embeddings.OpenAI.Model,
			cfg.Embeddings.OpenAI.BaseURL,
			cfg.Embeddings.OpenAI.Dimensions,
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embeddings.Provider)
	}
}

// EmbedInBatches embeds texts through svc in slices of at most batchSize,
// preserving input order. A batchSize <= 0 sends everything in one request.
func EmbedInBatches(ctx context.Context, svc Service, texts []string, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		batch, err := svc.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors for %d texts", start, end, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func first(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrNoEmbedding
	}
	return vectors[0], nil
}

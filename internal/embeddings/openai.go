package embeddings

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIService implements the embedding service using the OpenAI API or
// any endpoint that speaks its embeddings protocol.
type OpenAIService struct {
	client     openai.Client
	model      string
	requested  int
	dimensions atomic.Int64
}

// NewOpenAIService creates a new OpenAI embedding service. A non-zero
// dimensions asks the API for shortened vectors.
func NewOpenAIService(apiKey, model, baseURL string, dimensions int) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	s := &OpenAIService{
		client:    openai.NewClient(opts...),
		model:     model,
		requested: dimensions,
	}

	if dimensions == 0 {
		dimensions = GetModelDimensions(model)
		if dimensions == 0 {
			dimensions = 1536
			log.Debug("Unknown model dimensions, defaulting", "model", model, "dimensions", dimensions)
		}
	}
	s.dimensions.Store(int64(dimensions))

	return s, nil
}

// Embed generates an embedding for document text.
func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return first(vectors)
}

// EmbedQuery is the same as Embed; OpenAI models take no task prefix.
func (s *OpenAIService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts.
func (s *OpenAIService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return s.embedTexts(ctx, texts)
}

// Dimensions returns the embedding dimensions.
func (s *OpenAIService) Dimensions() int {
	return int(s.dimensions.Load())
}

// Provider returns the provider name.
func (s *OpenAIService) Provider() Provider {
	return ProviderOpenAI
}

// ModelName returns the model name.
func (s *OpenAIService) ModelName() string {
	return s.model
}

func (s *OpenAIService) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	log.Debug("Requesting embeddings from OpenAI", "model", s.model, "count", len(texts))

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(s.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if s.requested > 0 {
		params.Dimensions = openai.Int(int64(s.requested))
	}

	resp, err := s.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	// The API may answer out of order; place each vector by its index
	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(vectors) {
			continue
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors[idx] = vec
	}

	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("missing embedding for input %d: %w", i, ErrNoEmbedding)
		}
	}

	s.dimensions.Store(int64(len(vectors[0])))

	return vectors, nil
}

package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Task prefixes for models trained with asymmetric retrieval instructions.
var taskPrefixes = map[string]struct {
	document string
	query    string
}{
	"nomic-embed-text": {
		document: "search_document: ",
		query:    "search_query: ",
	},
	"mxbai-embed-large": {
		query: "Represent this sentence for searching relevant passages: ",
	},
}

// OllamaService implements the embedding service using a local Ollama.
type OllamaService struct {
	baseURL    string
	model      string
	dimensions atomic.Int64
	client     *http.Client
}

type ollamaEmbedRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate,omitempty"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaService creates a new Ollama embedding service.
func NewOllamaService(baseURL, model string) (*OllamaService, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama embedding model is required")
	}

	s := &OllamaService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}

	dims := GetModelDimensions(model)
	if dims == 0 {
		// Corrected from the first response
		dims = 384
		log.Debug("Unknown model dimensions, defaulting", "model", model, "dimensions", dims)
	}
	s.dimensions.Store(int64(dims))

	return s, nil
}

// Embed generates an embedding for document text.
func (s *OllamaService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedTexts(ctx, []string{s.applyPrefix(text, false)})
	if err != nil {
		return nil, err
	}
	return first(vectors)
}

// EmbedQuery generates an embedding for query text.
func (s *OllamaService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedTexts(ctx, []string{s.applyPrefix(text, true)})
	if err != nil {
		return nil, err
	}
	return first(vectors)
}

// EmbedBatch generates embeddings for multiple document texts.
func (s *OllamaService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	prefixed := make([]string, len(texts))
	for i, text := range texts {
		prefixed[i] = s.applyPrefix(text, false)
	}

	return s.embedTexts(ctx, prefixed)
}

// Dimensions returns the embedding dimensions.
func (s *OllamaService) Dimensions() int {
	return int(s.dimensions.Load())
}

// Provider returns the provider name.
func (s *OllamaService) Provider() Provider {
	return ProviderOllama
}

// ModelName returns the model name.
func (s *OllamaService) ModelName() string {
	return s.model
}

func (s *OllamaService) applyPrefix(text string, isQuery bool) string {
	prefixes, ok := taskPrefixes[s.model]
	if !ok {
		return text
	}
	if isQuery {
		return prefixes.query + text
	}
	return prefixes.document + text
}

func (s *OllamaService) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{
		Model:    s.model,
		Input:    texts,
		Truncate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("Requesting embeddings from Ollama", "model", s.model, "count", len(texts))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Embeddings) > 0 && len(result.Embeddings[0]) > 0 {
		s.dimensions.Store(int64(len(result.Embeddings[0])))
	}

	return result.Embeddings, nil
}

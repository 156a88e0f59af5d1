// Package llm provides the text generation services the debate agents
// speak through.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickcecere/ldebate/internal/config"
)

// Provider represents an LLM provider type.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ErrNoCompletion is returned when a provider answers without any text.
var ErrNoCompletion = errors.New("no completion returned")

// GenerateOptions configures a single generation request.
type GenerateOptions struct {
	// Temperature controls randomness (0-1).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int
}

// DefaultGenerateOptions returns the sampling used for debate turns.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
	}
}

// Service defines the interface for LLM services.
type Service interface {
	// Generate returns the model's completion of a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	Provider() Provider
	ModelName() string
}

// NewService creates an LLM service based on the configuration. When a
// request rate is configured the service is wrapped in a limiter.
func NewService(cfg *config.Config) (Service, error) {
	var (
		svc Service
		err error
	)

	switch Provider(cfg.LLM.Provider) {
	case ProviderOllama:
		svc, err = NewOllamaService(cfg.LLM.Ollama.URL, cfg.LLM.Ollama.Model)
	case ProviderOpenAI:
		svc, err = NewOpenAIService(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, cfg.LLM.OpenAI.BaseURL)
	case ProviderAnthropic:
		svc, err = NewAnthropicService(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.LLM.RequestsPerSecond > 0 {
		svc = NewRateLimited(svc, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	}

	return svc, nil
}

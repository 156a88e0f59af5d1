package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickcecere/ldebate/internal/config"
)

func TestNewService(t *testing.T) {
	t.Run("creates Ollama service", func(t *testing.T) {
		svc, err := NewService(config.DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, svc.Provider())
		assert.Equal(t, "mistral", svc.ModelName())
	})

	t.Run("creates OpenAI service", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LLM.Provider = "openai"
		cfg.LLM.OpenAI.APIKey = "sk-test"
		cfg.LLM.OpenAI.Model = "gpt-4"

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, svc.Provider())
		assert.Equal(t, "gpt-4", svc.ModelName())
	})

	t.Run("creates Anthropic service", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.Anthropic.APIKey = "sk-ant-test"

		svc, err := NewService(cfg)
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, svc.Provider())
	})

	t.Run("wraps in limiter when rate configured", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LLM.RequestsPerSecond = 2

		svc, err := NewService(cfg)
		require.NoError(t, err)
		_, ok := svc.(*RateLimited)
		assert.True(t, ok)
		assert.Equal(t, ProviderOllama, svc.Provider())
	})

	t.Run("missing key surfaces", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LLM.Provider = "anthropic"

		_, err := NewService(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("returns error for unsupported provider", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.LLM.Provider = "unsupported"

		_, err := NewService(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestNewOllamaService(t *testing.T) {
	svc, err := NewOllamaService("http://custom:8080/", "mistral")
	require.NoError(t, err)
	assert.Equal(t, "http://custom:8080", svc.baseURL)

	svc, err = NewOllamaService("", "mistral")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", svc.baseURL)
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.Equal(t, "argue for expansion", req.Prompt)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.InDelta(t, 0.5, req.Options.Temperature, 1e-9)
		assert.Equal(t, 1024, req.Options.NumPredict)

		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "Expand now.", Done: true})
	}))
	defer server.Close()

	svc, err := NewOllamaService(server.URL, "mistral")
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "argue for expansion", DefaultGenerateOptions())
	require.NoError(t, err)
	assert.Equal(t, "Expand now.", out)
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'mistral' not found"}`))
	}))
	defer server.Close()

	svc, _ := NewOllamaService(server.URL, "mistral")
	_, err := svc.Generate(context.Background(), "x", DefaultGenerateOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "weigh the risks", req.Messages[0].Content)
		assert.Equal(t, 256, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Too risky."},
			}},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIService("sk-test", "gpt-4o-mini", server.URL+"/v1/")
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "weigh the risks", GenerateOptions{Temperature: 0.2, MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "Too risky.", out)
}

func TestNewOpenAIServiceRequiresKey(t *testing.T) {
	_, err := NewOpenAIService("", "gpt-4", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestAnthropicGenerate(t *testing.T) {
	t.Run("joins text blocks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
			assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

			var req anthropicRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 1024, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)

			json.NewEncoder(w).Encode(anthropicResponse{
				Content: []anthropicContent{
					{Type: "text", Text: "[Summary]\n"},
					{Type: "text", Text: "Both sides agree."},
				},
				StopReason: "end_turn",
			})
		}))
		defer server.Close()

		svc, err := NewAnthropicService("sk-ant-test", "claude-3-haiku-20240307")
		require.NoError(t, err)
		svc.url = server.URL

		// Zero max tokens falls back to the default
		out, err := svc.Generate(context.Background(), "synthesize", GenerateOptions{Temperature: 0.5})
		require.NoError(t, err)
		assert.Equal(t, "[Summary]\nBoth sides agree.", out)
	})

	t.Run("empty content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content":[]}`))
		}))
		defer server.Close()

		svc, _ := NewAnthropicService("sk-ant-test", "claude")
		svc.url = server.URL

		_, err := svc.Generate(context.Background(), "x", DefaultGenerateOptions())
		assert.ErrorIs(t, err, ErrNoCompletion)
	})

	t.Run("requires API key", func(t *testing.T) {
		_, err := NewAnthropicService("", "claude-3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})
}

// stubService counts Generate calls.
type stubService struct {
	calls atomic.Int32
}

func (s *stubService) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	s.calls.Add(1)
	return "ok", nil
}

func (s *stubService) Provider() Provider { return "stub" }
func (s *stubService) ModelName() string { return "stub" }

func TestRateLimited(t *testing.T) {
	t.Run("delegates", func(t *testing.T) {
		inner := &stubService{}
		svc := NewRateLimited(inner, 100, 0)

		out, err := svc.Generate(context.Background(), "p", DefaultGenerateOptions())
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
		assert.Equal(t, int32(1), inner.calls.Load())
		assert.Equal(t, Provider("stub"), svc.Provider())
	})

	t.Run("honors context while waiting", func(t *testing.T) {
		inner := &stubService{}
		svc := NewRateLimited(inner, 0.001, 1)

		// First call consumes the only token
		_, err := svc.Generate(context.Background(), "p", DefaultGenerateOptions())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = svc.Generate(ctx, "p", DefaultGenerateOptions())
		require.Error(t, err)
		assert.Equal(t, int32(1), inner.calls.Load())
	})
}

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values
const (
	// Knowledge base defaults
	DefaultKnowledgeDir = "knowledge_base"
	DefaultMaxFileSize  = 1 << 20 // 1MB

	// Embedding defaults
	DefaultEmbeddingProvider = "ollama"
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultOllamaEmbedModel  = "all-minilm"
	DefaultOpenAIEmbedModel  = "text-embedding-3-small"
	DefaultEmbedBatchSize    = 32

	// LLM defaults
	DefaultLLMProvider    = "ollama"
	DefaultOllamaLLMModel = "mistral"
	DefaultOpenAILLMModel = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-haiku-20240307"
	DefaultLLMBurst       = 1

	// Debate defaults
	DefaultTopK         = 3
	DefaultTemperature  = 0.5
	DefaultMaxTokens    = 1024
	DefaultStageTimeout = 2 * time.Minute

	// Server defaults
	DefaultTransport  = "stdio"
	DefaultServerAddr = ":8000"

	RCFileName = ".ldebaterc.yaml"
)

// DefaultIgnorePatterns returns the default list of file patterns the
// knowledge base never loads.
func DefaultIgnorePatterns() []string {
	return []string{
		// Editor and OS droppings
		"*.swp",
		"*.swo",
		"*~",
		".DS_Store",
		"Thumbs.db",

		// Secrets
		".env",
		".env.*",

		// Archives
		"*.zip",
		"*.tar",
		"*.tar.gz",
		"*.tgz",
		"*.7z",
	}
}

// DefaultConfigDir returns the default configuration directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/ldebate"
	}
	return filepath.Join(home, ".config", "ldebate")
}

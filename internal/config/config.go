// Package config handles configuration loading and validation for ldebate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete ldebate configuration.
type Config struct {
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge" yaml:"knowledge"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings" yaml:"embeddings"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Debate     DebateConfig     `mapstructure:"debate" yaml:"debate"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// KnowledgeConfig configures the knowledge base directory.
type KnowledgeConfig struct {
	Dir         string   `mapstructure:"dir" yaml:"dir"`
	MaxFileSize int      `mapstructure:"max_file_size" yaml:"max_file_size"`
	Ignore      []string `mapstructure:"ignore" yaml:"ignore"`
}

// EmbeddingsConfig configures the embedding service.
type EmbeddingsConfig struct {
	Provider  string            `mapstructure:"provider" yaml:"provider"`
	BatchSize int               `mapstructure:"batch_size" yaml:"batch_size"`
	Ollama    OllamaEmbedConfig `mapstructure:"ollama" yaml:"ollama"`
	OpenAI    OpenAIEmbedConfig `mapstructure:"openai" yaml:"openai"`
}

// OllamaEmbedConfig configures Ollama embeddings.
type OllamaEmbedConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Model string `mapstructure:"model" yaml:"model"`
}

// OpenAIEmbedConfig configures OpenAI embeddings.
type OpenAIEmbedConfig struct {
	Model      string `mapstructure:"model" yaml:"model"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions,omitempty"`
}

// LLMConfig configures the generation service used by the debate agents.
type LLMConfig struct {
	Provider          string          `mapstructure:"provider" yaml:"provider"`
	RequestsPerSecond float64         `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int             `mapstructure:"burst" yaml:"burst"`
	Ollama            OllamaLLMConfig `mapstructure:"ollama" yaml:"ollama"`
	OpenAI            OpenAILLMConfig `mapstructure:"openai" yaml:"openai"`
	Anthropic         AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
}

// OllamaLLMConfig configures Ollama generation.
type OllamaLLMConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Model string `mapstructure:"model" yaml:"model"`
}

// OpenAILLMConfig configures OpenAI generation.
type OpenAILLMConfig struct {
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// AnthropicConfig configures Anthropic generation.
type AnthropicConfig struct {
	Model  string `mapstructure:"model" yaml:"model"`
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// DebateConfig configures retrieval and sampling for a debate.
type DebateConfig struct {
	TopK         int           `mapstructure:"top_k" yaml:"top_k"`
	Temperature  float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Watch     bool   `mapstructure:"watch" yaml:"watch"`
}

// Global configuration instance
var cfg *Config

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Dir:         DefaultKnowledgeDir,
			MaxFileSize: DefaultMaxFileSize,
			Ignore:      DefaultIgnorePatterns(),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  DefaultEmbeddingProvider,
			BatchSize: DefaultEmbedBatchSize,
			Ollama: OllamaEmbedConfig{
				URL:   DefaultOllamaURL,
				Model: DefaultOllamaEmbedModel,
			},
			OpenAI: OpenAIEmbedConfig{
				Model: DefaultOpenAIEmbedModel,
			},
		},
		LLM: LLMConfig{
			Provider: DefaultLLMProvider,
			Burst:    DefaultLLMBurst,
			Ollama: OllamaLLMConfig{
				URL:   DefaultOllamaURL,
				Model: DefaultOllamaLLMModel,
			},
			OpenAI: OpenAILLMConfig{
				Model: DefaultOpenAILLMModel,
			},
			Anthropic: AnthropicConfig{
				Model: DefaultAnthropicModel,
			},
		},
		Debate: DebateConfig{
			TopK:         DefaultTopK,
			Temperature:  DefaultTemperature,
			MaxTokens:    DefaultMaxTokens,
			StageTimeout: DefaultStageTimeout,
		},
		Server: ServerConfig{
			Transport: DefaultTransport,
			Addr:      DefaultServerAddr,
			Watch:     true,
		},
	}
}

// Load reads configuration from file and environment variables.
func Load(configFile string) error {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(DefaultConfigDir())
		viper.AddConfigPath(".")

		// A .ldebaterc.yaml in the working tree wins over the global file
		if rcPath := findRCFile(); rcPath != "" {
			viper.SetConfigFile(rcPath)
		}
	}

	viper.SetEnvPrefix("LDEBATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	} else {
		log.Debug("Loaded config from", "file", viper.ConfigFileUsed())
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	cfg = loaded

	loadAPIKeysFromEnv()

	return nil
}

// setDefaults sets default values in viper.
func setDefaults() {
	d := DefaultConfig()

	viper.SetDefault("knowledge.dir", d.Knowledge.Dir)
	viper.SetDefault("knowledge.max_file_size", d.Knowledge.MaxFileSize)
	viper.SetDefault("knowledge.ignore", d.Knowledge.Ignore)

	viper.SetDefault("embeddings.provider", d.Embeddings.Provider)
	viper.SetDefault("embeddings.batch_size", d.Embeddings.BatchSize)
	viper.SetDefault("embeddings.ollama.url", d.Embeddings.Ollama.URL)
	viper.SetDefault("embeddings.ollama.model", d.Embeddings.Ollama.Model)
	viper.SetDefault("embeddings.openai.model", d.Embeddings.OpenAI.Model)

	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	viper.SetDefault("llm.burst", d.LLM.Burst)
	viper.SetDefault("llm.ollama.url", d.LLM.Ollama.URL)
	viper.SetDefault("llm.ollama.model", d.LLM.Ollama.Model)
	viper.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	viper.SetDefault("llm.anthropic.model", d.LLM.Anthropic.Model)

	viper.SetDefault("debate.top_k", d.Debate.TopK)
	viper.SetDefault("debate.temperature", d.Debate.Temperature)
	viper.SetDefault("debate.max_tokens", d.Debate.MaxTokens)
	viper.SetDefault("debate.stage_timeout", d.Debate.StageTimeout)

	viper.SetDefault("server.transport", d.Server.Transport)
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.watch", d.Server.Watch)
}

// findRCFile searches for .ldebaterc.yaml starting from current directory.
func findRCFile() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		rcPath := filepath.Join(dir, RCFileName)
		if _, err := os.Stat(rcPath); err == nil {
			return rcPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// loadAPIKeysFromEnv loads API keys from environment variables if not already set.
func loadAPIKeysFromEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Embeddings.OpenAI.APIKey == "" {
			cfg.Embeddings.OpenAI.APIKey = key
		}
		if cfg.LLM.OpenAI.APIKey == "" {
			cfg.LLM.OpenAI.APIKey = key
		}
	}

	if cfg.LLM.Anthropic.APIKey == "" {
		cfg.LLM.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// WriteDefault writes the default configuration as YAML to path.
// It refuses to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Redacted returns a copy of c with API keys masked.
func (c Config) Redacted() Config {
	mask := func(key string) string {
		if key == "" {
			return ""
		}
		return "********"
	}
	c.Embeddings.OpenAI.APIKey = mask(c.Embeddings.OpenAI.APIKey)
	c.LLM.OpenAI.APIKey = mask(c.LLM.OpenAI.APIKey)
	c.LLM.Anthropic.APIKey = mask(c.LLM.Anthropic.APIKey)
	return c
}

// ConfigFilePath returns the path of the loaded config file, or empty string if none.
func ConfigFilePath() string {
	return viper.ConfigFileUsed()
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single LLM request including retries. Default: 30s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
// MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// EmbeddingConfig configures the embedding collaborator used for both
// ingestion and queries.
type EmbeddingConfig struct {
	// Provider values: "openai", "gemini", "local", "hash"
	Provider string

	// Model overrides the provider's default embedding model.
	Model string

	// APIKey falls back to the matching generation provider key when empty.
	APIKey  string
	BaseURL string

	// ModelDir is where the local model is downloaded to.
	ModelDir string

	// Dimensions is the vector size of the hash embedder.
	Dimensions int

	// BatchSize is the number of texts sent per EmbedBatch call during ingestion.
	BatchSize int

	// Concurrency bounds in-flight batches during ingestion.
	Concurrency int

	// RequestsPerSecond throttles remote embedding calls. Zero disables.
	RequestsPerSecond float64
	Burst             int

	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// DefaultEmbeddingConfig returns the embedding defaults.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:          "local",
		Dimensions:        256,
		BatchSize:         32,
		Concurrency:       4,
		RequestsPerSecond: 0,
		Burst:             1,
		Timeout:           30 * time.Second,
	}
}

// ApplyEnv overrides c with TUTOR_* environment variables.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("TUTOR_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}

	if k := os.Getenv("TUTOR_ANTHROPIC_API_KEY"); k != "" {
		c.Anthropic.APIKey = k
	}
	if m := os.Getenv("TUTOR_ANTHROPIC_MODEL"); m != "" {
		c.Anthropic.Model = m
	}

	if k := os.Getenv("TUTOR_OPENAI_API_KEY"); k != "" {
		c.OpenAI.APIKey = k
	}
	if m := os.Getenv("TUTOR_OPENAI_MODEL"); m != "" {
		c.OpenAI.Model = m
	}
	if u := os.Getenv("TUTOR_OPENAI_BASE_URL"); u != "" {
		c.OpenAI.BaseURL = u
	}

	if k := os.Getenv("TUTOR_GEMINI_API_KEY"); k != "" {
		c.Gemini.APIKey = k
	}
	if m := os.Getenv("TUTOR_GEMINI_MODEL"); m != "" {
		c.Gemini.Model = m
	}

	if k := os.Getenv("TUTOR_OPENROUTER_API_KEY"); k != "" {
		c.OpenRouter.APIKey = k
	}
	if m := os.Getenv("TUTOR_OPENROUTER_MODEL"); m != "" {
		c.OpenRouter.Model = m
	}

	if t := os.Getenv("TUTOR_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			c.Timeout = d
		}
	}
}

// ApplyEnv overrides c with TUTOR_EMBEDDING_* environment variables.
func (c *EmbeddingConfig) ApplyEnv() {
	if p := os.Getenv("TUTOR_EMBEDDING_PROVIDER"); p != "" {
		c.Provider = p
	}
	if m := os.Getenv("TUTOR_EMBEDDING_MODEL"); m != "" {
		c.Model = m
	}
	if k := os.Getenv("TUTOR_EMBEDDING_API_KEY"); k != "" {
		c.APIKey = k
	}
	if d := os.Getenv("TUTOR_EMBEDDING_MODEL_DIR"); d != "" {
		c.ModelDir = d
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("TUTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("TUTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("TUTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("TUTOR_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	return nil
}

// ResolveKey fills an empty embedding API key from the generation config.
func (c EmbeddingConfig) ResolveKey(gen Config) EmbeddingConfig {
	if c.APIKey != "" {
		return c
	}
	switch c.Provider {
	case "openai":
		c.APIKey = gen.OpenAI.APIKey
		if c.BaseURL == "" {
			c.BaseURL = gen.OpenAI.BaseURL
		}
	case "gemini":
		c.APIKey = gen.Gemini.APIKey
	}
	return c
}

// Validate checks the embedding configuration.
func (c EmbeddingConfig) Validate() error {
	switch c.Provider {
	case "openai", "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s embedding provider", c.Provider)
		}
	case "local":
	case "hash":
		if c.Dimensions <= 0 {
			return fmt.Errorf("hash embedder dimensions must be positive")
		}
	default:
		return fmt.Errorf("unknown embedding provider: %q", c.Provider)
	}
	if c.BatchSize < 0 || c.Concurrency < 0 {
		return fmt.Errorf("embedding batch size and concurrency must not be negative")
	}
	return nil
}

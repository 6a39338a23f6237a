// Package config assembles the tutor configuration from defaults, an
// optional TOML file and TUTOR_* environment variables. Command-line flags
// are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abhisek/tutor/internal/llm"
)

// DefaultStudentID is used when no student is given.
const DefaultStudentID = "default_student"

// Config is the complete runtime configuration.
type Config struct {
	StudentID string

	LLM       llm.Config
	Embedding llm.EmbeddingConfig
	Corpus    CorpusConfig
	Retrieval RetrievalConfig
	Quiz      QuizConfig
}

// CorpusConfig controls chunking.
type CorpusConfig struct {
	ChunkSize int
	Overlap   int
}

// RetrievalConfig controls grounding for answers.
type RetrievalConfig struct {
	TopK     int
	MinScore float64
}

// QuizConfig controls quiz generation.
type QuizConfig struct {
	QuestionCount int
	GroundingK    int
	MaxAttempts   int
	Temperature   float64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StudentID: DefaultStudentID,
		LLM:       llm.DefaultConfig(),
		Embedding: llm.DefaultEmbeddingConfig(),
		Corpus:    CorpusConfig{ChunkSize: 300, Overlap: 40},
		Retrieval: RetrievalConfig{TopK: 4},
		Quiz:      QuizConfig{QuestionCount: 4, GroundingK: 4, MaxAttempts: 2, Temperature: 0.7},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tutor/config.toml, falling back to
// ~/.config/tutor/config.toml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tutor", "config.toml"), nil
}

// Load builds the configuration. An explicit path must exist; when path is
// empty the default location is used if present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyTOML(data); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	providerSet := os.Getenv("TUTOR_LLM_PROVIDER") != ""
	c.LLM.ApplyEnv()
	c.Embedding.ApplyEnv()

	if s := os.Getenv("TUTOR_STUDENT"); s != "" {
		c.StudentID = s
	}
	if v, err := strconv.Atoi(os.Getenv("TUTOR_CHUNK_SIZE")); err == nil {
		c.Corpus.ChunkSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("TUTOR_TOP_K")); err == nil {
		c.Retrieval.TopK = v
	}

	// Without an explicit provider, fall back to whichever standard API key
	// is present in the environment.
	if !providerSet && c.LLM.Validate() != nil {
		if found, ok := llm.DiscoverConfig(); ok {
			c.LLM.Provider = found.Provider
			c.LLM.Anthropic.APIKey = firstNonEmpty(c.LLM.Anthropic.APIKey, found.Anthropic.APIKey)
			c.LLM.OpenAI.APIKey = firstNonEmpty(c.LLM.OpenAI.APIKey, found.OpenAI.APIKey)
			c.LLM.Gemini.APIKey = firstNonEmpty(c.LLM.Gemini.APIKey, found.Gemini.APIKey)
			c.LLM.OpenRouter.APIKey = firstNonEmpty(c.LLM.OpenRouter.APIKey, found.OpenRouter.APIKey)
		}
	}
	c.Embedding = c.Embedding.ResolveKey(c.LLM)
}

// Validate checks values that would otherwise fail deep inside a command.
// LLM keys are validated separately since several commands work offline.
func (c Config) Validate() error {
	if c.StudentID == "" {
		return fmt.Errorf("student id must not be empty")
	}
	if c.Corpus.ChunkSize <= 0 {
		return fmt.Errorf("corpus chunk_size must be positive")
	}
	if c.Corpus.Overlap < 0 || c.Corpus.Overlap >= c.Corpus.ChunkSize {
		return fmt.Errorf("corpus overlap must be in [0, chunk_size)")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	if c.Quiz.QuestionCount <= 0 || c.Quiz.MaxAttempts <= 0 {
		return fmt.Errorf("quiz question_count and max_attempts must be positive")
	}
	return c.Embedding.Validate()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

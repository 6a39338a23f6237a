package config

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors config.toml. Zero values mean "not set" and leave the
// defaults in place; durations are written as strings such as "30s".
type fileConfig struct {
	Student string `toml:"student"`

	LLM struct {
		Provider string `toml:"provider"`
		Timeout  string `toml:"timeout"`

		Anthropic struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"anthropic"`
		OpenAI struct {
			APIKey  string `toml:"api_key"`
			Model   string `toml:"model"`
			BaseURL string `toml:"base_url"`
		} `toml:"openai"`
		Gemini struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"gemini"`
		OpenRouter struct {
			APIKey  string `toml:"api_key"`
			Model   string `toml:"model"`
			BaseURL string `toml:"base_url"`
		} `toml:"openrouter"`

		Retry struct {
			MaxAttempts int     `toml:"max_attempts"`
			InitialWait string  `toml:"initial_wait"`
			MaxWait     string  `toml:"max_wait"`
			Multiplier  float64 `toml:"multiplier"`
		} `toml:"retry"`
	} `toml:"llm"`

	Embedding struct {
		Provider          string  `toml:"provider"`
		Model             string  `toml:"model"`
		APIKey            string  `toml:"api_key"`
		BaseURL           string  `toml:"base_url"`
		ModelDir          string  `toml:"model_dir"`
		Dimensions        int     `toml:"dimensions"`
		BatchSize         int     `toml:"batch_size"`
		Concurrency       int     `toml:"concurrency"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		Burst             int     `toml:"burst"`
		Timeout           string  `toml:"timeout"`
	} `toml:"embedding"`

	Corpus struct {
		ChunkSize int  `toml:"chunk_size"`
		Overlap   *int `toml:"overlap"`
	} `toml:"corpus"`

	Retrieval struct {
		TopK     int     `toml:"top_k"`
		MinScore float64 `toml:"min_score"`
	} `toml:"retrieval"`

	Quiz struct {
		QuestionCount int      `toml:"question_count"`
		GroundingK    int      `toml:"grounding_k"`
		MaxAttempts   int      `toml:"max_attempts"`
		Temperature   *float64 `toml:"temperature"`
	} `toml:"quiz"`
}

func (c *Config) applyTOML(data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}

	setString(&c.StudentID, f.Student)

	l := &c.LLM
	setString(&l.Provider, f.LLM.Provider)
	setString(&l.Anthropic.APIKey, f.LLM.Anthropic.APIKey)
	setString(&l.Anthropic.Model, f.LLM.Anthropic.Model)
	setString(&l.OpenAI.APIKey, f.LLM.OpenAI.APIKey)
	setString(&l.OpenAI.Model, f.LLM.OpenAI.Model)
	setString(&l.OpenAI.BaseURL, f.LLM.OpenAI.BaseURL)
	setString(&l.Gemini.APIKey, f.LLM.Gemini.APIKey)
	setString(&l.Gemini.Model, f.LLM.Gemini.Model)
	setString(&l.OpenRouter.APIKey, f.LLM.OpenRouter.APIKey)
	setString(&l.OpenRouter.Model, f.LLM.OpenRouter.Model)
	setString(&l.OpenRouter.BaseURL, f.LLM.OpenRouter.BaseURL)
	setInt(&l.Retry.MaxAttempts, f.LLM.Retry.MaxAttempts)
	if f.LLM.Retry.Multiplier > 0 {
		l.Retry.Multiplier = f.LLM.Retry.Multiplier
	}

	for _, d := range []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"llm.timeout", f.LLM.Timeout, &l.Timeout},
		{"llm.retry.initial_wait", f.LLM.Retry.InitialWait, &l.Retry.InitialWait},
		{"llm.retry.max_wait", f.LLM.Retry.MaxWait, &l.Retry.MaxWait},
		{"embedding.timeout", f.Embedding.Timeout, &c.Embedding.Timeout},
	} {
		if err := setDuration(d.dst, d.field, d.raw); err != nil {
			return err
		}
	}

	e := &c.Embedding
	setString(&e.Provider, f.Embedding.Provider)
	setString(&e.Model, f.Embedding.Model)
	setString(&e.APIKey, f.Embedding.APIKey)
	setString(&e.BaseURL, f.Embedding.BaseURL)
	setString(&e.ModelDir, f.Embedding.ModelDir)
	setInt(&e.Dimensions, f.Embedding.Dimensions)
	setInt(&e.BatchSize, f.Embedding.BatchSize)
	setInt(&e.Concurrency, f.Embedding.Concurrency)
	setInt(&e.Burst, f.Embedding.Burst)
	if f.Embedding.RequestsPerSecond > 0 {
		e.RequestsPerSecond = f.Embedding.RequestsPerSecond
	}

	setInt(&c.Corpus.ChunkSize, f.Corpus.ChunkSize)
	if f.Corpus.Overlap != nil {
		c.Corpus.Overlap = *f.Corpus.Overlap
	}

	setInt(&c.Retrieval.TopK, f.Retrieval.TopK)
	if f.Retrieval.MinScore != 0 {
		c.Retrieval.MinScore = f.Retrieval.MinScore
	}

	setInt(&c.Quiz.QuestionCount, f.Quiz.QuestionCount)
	setInt(&c.Quiz.GroundingK, f.Quiz.GroundingK)
	setInt(&c.Quiz.MaxAttempts, f.Quiz.MaxAttempts)
	if f.Quiz.Temperature != nil {
		c.Quiz.Temperature = *f.Quiz.Temperature
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration, wrapped with the
// timeout, retry and logging middleware:
//
//	caller → timeout → retry → logging → base
//
// The timeout therefore bounds the call including any retries, and every
// attempt is recorded as its own event.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := base
	if events != nil {
		p = WithLogging(p, cfg.Provider, events)
	}
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}

// NewEmbedder creates the configured Embedder wrapped with rate limiting
// and a per-call timeout.
func NewEmbedder(ctx context.Context, cfg EmbeddingConfig) (Embedder, error) {
	var base Embedder
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIEmbedder(cfg)
	case "gemini":
		base, err = NewGeminiEmbedder(ctx, cfg)
	case "local":
		base, err = NewLocalEmbedder(cfg)
	case "hash":
		base = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s embedder: %w", cfg.Provider, err)
	}

	e := WithEmbedRateLimit(base, cfg.RequestsPerSecond, cfg.Burst)
	return WithEmbedTimeout(e, cfg.Timeout), nil
}

// Unavailable returns a Provider whose every call fails with
// ErrProviderUnavailable wrapping cause. It stands in when no provider is
// configured so that offline commands such as ingest still work.
func Unavailable(cause error) Provider {
	return unavailableProvider{cause: cause}
}

type unavailableProvider struct {
	cause error
}

func (p unavailableProvider) Generate(context.Context, Request) (*Response, error) {
	return nil, &ErrProviderUnavailable{Err: p.cause}
}

func (p unavailableProvider) ModelID() string { return "unavailable" }

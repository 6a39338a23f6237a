package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// Embedder maps text to fixed-size vectors. The same Embedder must be used
// for ingestion and for queries so both live in one embedding space.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the embedding space, e.g. "text-embedding-3-small".
	ModelName() string

	// Dimensions is the vector size, or 0 if not known until the first call.
	Dimensions() int
}

// embedOne implements Embed on top of EmbedBatch.
func embedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, &ErrEmbeddingUnavailable{
			Model: e.ModelName(),
			Err:   fmt.Errorf("expected 1 embedding, got %d", len(vecs)),
		}
	}
	return vecs[0], nil
}

// CloseEmbedder releases the resources held by e or any embedder it wraps.
func CloseEmbedder(e Embedder) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// rateLimitedEmbedder waits on a token bucket before every call.
type rateLimitedEmbedder struct {
	Embedder
	limiter *rate.Limiter
}

// WithEmbedRateLimit throttles e to rps calls per second with the given
// burst. A non-positive rps returns e unchanged.
func WithEmbedRateLimit(e Embedder, rps float64, burst int) Embedder {
	if rps <= 0 {
		return e
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedEmbedder{Embedder: e, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimitedEmbedder) Close() error { return CloseEmbedder(r.Embedder) }

// wait blocks for a token. A deadline too close to wait for one is a
// timeout; cancellation is reported as the embedder being unavailable.
func (r *rateLimitedEmbedder) wait(ctx context.Context) error {
	err := r.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && !errors.Is(ctx.Err(), context.Canceled) {
		return &ErrTimeout{After: max(time.Until(deadline), 0), Err: err}
	}
	return &ErrEmbeddingUnavailable{Model: r.ModelName(), Err: err}
}

func (r *rateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.Embedder.Embed(ctx, text)
}

func (r *rateLimitedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.Embedder.EmbedBatch(ctx, texts)
}

// timeoutEmbedder bounds every call with a deadline.
type timeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

// WithEmbedTimeout wraps e so each call fails with *ErrTimeout after d.
func WithEmbedTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return &timeoutEmbedder{Embedder: e, timeout: d}
}

func (t *timeoutEmbedder) Close() error { return CloseEmbedder(t.Embedder) }

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	v, err := t.Embedder.Embed(callCtx, text)
	if err != nil {
		return nil, asTimeout(ctx, callCtx, t.timeout, err)
	}
	return v, nil
}

func (t *timeoutEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	v, err := t.Embedder.EmbedBatch(callCtx, texts)
	if err != nil {
		return nil, asTimeout(ctx, callCtx, t.timeout, err)
	}
	return v, nil
}

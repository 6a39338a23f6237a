package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider bounds every Generate call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call fails with *ErrTimeout after d.
// A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(callCtx, req)
	if err != nil {
		return nil, asTimeout(ctx, callCtx, t.timeout, err)
	}
	return resp, nil
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}

// asTimeout converts err into *ErrTimeout when our own deadline expired.
// Deadlines and cancellation set by the caller pass through untouched.
func asTimeout(parent, callCtx context.Context, d time.Duration, err error) error {
	if parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &ErrTimeout{After: d, Err: err}
	}
	return err
}

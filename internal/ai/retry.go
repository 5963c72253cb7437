package ai

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryConfig returns the retry policy used when a provider config has none
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// WithRetry runs op until it succeeds, returns a non-retryable error, or the
// retry budget is spent. Delays double each attempt; a ProviderError carrying
// RetryAfter overrides the computed delay.
func WithRetry(ctx context.Context, cfg *RetryConfig, op func(context.Context) error) error {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}

		wait := delay
		var pe *ProviderError
		if errors.As(lastErr, &pe) && pe.RetryAfter > 0 {
			wait = time.Duration(pe.RetryAfter) * time.Second
		}
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return lastErr
}

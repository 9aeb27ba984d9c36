// Package llm provides a single interface over the hosted model APIs cliche
// speaks to, with one adapter per provider and a factory that resolves the
// active provider from config or environment.
package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/sizzlebop/CLIche/internal/logging"
)

// Client is the interface every provider adapter implements.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
	SetModel(model string)
}

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.7
	maxRetries         = 3
)

// newPacer returns the request pacer shared by all adapters: at most one
// request per interval, with a small burst for the single-call modes.
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// withRetry runs fn up to maxRetries+1 times, backing off 1s, 2s, 4s on
// retryable provider errors. Non-retryable errors return immediately.
func withRetry(ctx context.Context, provider string, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logging.ProviderDebug("%s: retry %d after %v: %v", provider, attempt, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
	}
	logging.ProviderError("%s: max retries exceeded: %v", provider, lastErr)
	return "", lastErr
}

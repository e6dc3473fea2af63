package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// maxAttempts is how many times a model call is tried in total.
	maxAttempts = 2
	// defaultTemperature keeps structured output stable.
	defaultTemperature = 0.1
)

// retryBackoff is the base delay between attempts.
var retryBackoff = 2 * time.Second

// apiError represents an error from a model API that may or may not be retryable.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// isRetryable returns true for transient errors (rate limit, server errors).
func (e *apiError) isRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// withRetry runs do up to maxAttempts times, backing off between attempts.
// Non-retryable API errors stop immediately.
func withRetry(ctx context.Context, provider string, do func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := do()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var ae *apiError
		if errors.As(err, &ae) && !ae.isRetryable() {
			return "", fmt.Errorf("%s: %w", provider, err)
		}

		if attempt < maxAttempts-1 {
			backoff := time.Duration(attempt+1) * retryBackoff
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", fmt.Errorf("%s: %w", provider, lastErr)
}

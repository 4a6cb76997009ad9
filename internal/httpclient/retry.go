package httpclient

import (
	"context"
	"time"
)

// RetryConfig controls retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns conservative retry settings: one retry with
// a short backoff. Scoring calls sit on the navigation hot path, so long
// retry loops would delay the fallback verdict more than they help.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 1,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// RetryHandler executes an operation with exponential backoff.
type RetryHandler struct {
	config RetryConfig
}

// NewRetryHandler creates a retry handler with the given config.
func NewRetryHandler(config RetryConfig) *RetryHandler {
	return &RetryHandler{config: config}
}

// shouldRetry reports whether the response status warrants another
// attempt. Client errors are final; 5xx and 429 are transient.
func (rh *RetryHandler) shouldRetry(statusCode int) bool {
	return statusCode >= 500 || statusCode == 429
}

// backoffDelay computes the delay before the given attempt (1-based).
func (rh *RetryHandler) backoffDelay(attempt int) time.Duration {
	delay := rh.config.BaseDelay << (attempt - 1)
	if delay > rh.config.MaxDelay {
		delay = rh.config.MaxDelay
	}
	return delay
}

// DoWithRetry runs op until it succeeds, returns a non-retryable status,
// or the attempt budget is exhausted. The last response or error wins.
func (rh *RetryHandler) DoWithRetry(ctx context.Context, op func(*Request) (*Response, error), req *Request) (*Response, error) {
	var lastResp *Response
	var lastErr error

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(rh.backoffDelay(attempt)):
			}
		}

		lastResp, lastErr = op(req)
		if lastErr == nil && !rh.shouldRetry(lastResp.StatusCode) {
			return lastResp, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return lastResp, nil
}

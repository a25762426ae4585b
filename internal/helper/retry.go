package helper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type RetryableFunc[T any] func() (T, bool, error)

// RetryWithBackoff runs operation until it succeeds, reports a non-retryable
// error, or maxRetries retries are spent. The delay doubles after each attempt.
func RetryWithBackoff[T any](ctx context.Context, operation RetryableFunc[T], maxRetries int, baseDelay time.Duration) (T, error) {
	var err error
	var result T
	var shouldRetry bool

	delay := baseDelay
	for i := 0; i <= maxRetries; i++ {
		result, shouldRetry, err = operation()

		if err == nil {
			return result, nil
		}

		if !shouldRetry {
			return result, err
		}

		if i == maxRetries {
			break
		}

		slog.Warn("Operation failed, retrying...", "attempt", i+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", maxRetries+1, err)
}

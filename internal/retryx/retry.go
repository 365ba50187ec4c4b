// Package retryx wraps sethvargo/go-retry into the one retry shape used in
// this project: bounded attempts with exponential delay.
package retryx

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Do runs fn up to maxAttempts times with exponential backoff starting at
// base. Every error returned by fn is treated as retryable; after the attempt
// ceiling is reached the last error is returned wrapped.
func Do(ctx context.Context, maxAttempts uint64, base time.Duration, fn func(ctx context.Context) error) error {
	if maxAttempts == 0 {
		return fmt.Errorf("retryx: maxAttempts must be positive")
	}

	b := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(base))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("retry attempts exceeded: %w", err)
	}
	return nil
}

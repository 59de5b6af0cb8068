// Package retry runs a single-shot operation under a fixed attempt budget
// with a constant delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Retryable reports whether an error is worth another attempt. Errors that
// implement it and return false abort the loop immediately; everything else
// is treated as transient.
type Retryable interface {
	IsRetryable() bool
}

// Do calls fn up to maxAttempts times, sleeping delay between attempts.
// Attempts are strictly sequential. On success it returns immediately; once
// the budget is exhausted the last failure is wrapped and returned. A
// cancelled context aborts the inter-attempt wait.
func Do(ctx context.Context, maxAttempts int, delay time.Duration, fn func(context.Context) error) error {
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		var r Retryable
		if errors.As(last, &r) && !r.IsRetryable() {
			return fmt.Errorf("attempt %d not retryable: %w", attempt, last)
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, ctx.Err())
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxAttempts, last)
}

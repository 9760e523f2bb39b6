package retry

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 1000 * time.Millisecond
)

// Do runs fn up to DefaultAttempts times with exponential backoff, doubling
// the delay after each failed attempt. The last error is returned once the
// attempt ceiling is exhausted. Cancellation cuts the wait short.
func Do(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := DefaultBaseDelay

	for attempt := 1; attempt <= DefaultAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == DefaultAttempts {
			break
		}

		slog.Debug("Operation failed, retrying", "operation", operation, "attempt", attempt, "delay", delay.String(), "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}

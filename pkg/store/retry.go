package store

import (
	"context"
	"errors"
	"time"
)

// Connection retry policy for the network backends.
const (
	connectAttempts = 4
	connectDelay    = 250 * time.Millisecond
)

// retryableError marks a failure that [retry] should attempt again.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retry runs fn up to attempts times, doubling delay after each failure.
// Only errors wrapped in retryableError are retried; the wrapper is removed
// from the returned error. ctx cancellation stops the wait.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		var re *retryableError
		if !errors.As(err, &re) {
			return err
		}
		lastErr = re.err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// Package retry holds the retry-on-conflict combinator shared by the
// sequence generator and the create-order persistence backstop.
package retry

import (
	"context"
	"fmt"
	"time"
)

// DelayFunc returns the delay to sleep before retrying after the given
// zero-based attempt.
type DelayFunc func(attempt int) time.Duration

// Exponential doubles the base delay on every attempt.
func Exponential(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// Linear grows the base delay by one base per attempt.
func Linear(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt+1)
	}
}

// Do runs op up to attempts times, sleeping delay(attempt) between tries as
// long as retryable(err) holds. A non-retryable error is returned as-is
// immediately; exhausting the attempt ceiling wraps the last error. The
// backoff sleep observes ctx cancellation.
func Do(ctx context.Context, attempts int, delay DelayFunc, retryable func(error) bool, op func() error) error {
	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, delay(attempt-1)); err != nil {
				return err
			}
		}
		last = op()
		if last == nil {
			return nil
		}
		if !retryable(last) {
			return last
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, last)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetry marks an error as transient.
//
// Functions passed to Blocking wrap their error with ErrRetry to be called again.
var ErrRetry = errors.New("retry")

// ErrGaveUp is returned by a Backoff made with Limit, when retry count is exhausted.
var ErrGaveUp = errors.New("gave up retrying")

// Backoff is a (blocking) function returns when to retry.
//
// # Args
//
// - context: context. If context is canceled, Backoff should return ctx.Err().
//
// # Returns
//
// - error: nil if retry, non-nil if not.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff function that waits for a fixed interval.
func StaticBackoff(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1)
}

// ExponentialBackoff returns a Backoff function that waits with exponential backoff.
//
// # Args
//
// - initialInterval: initial interval.
//
// - r: multiplier of interval.
//
// # Returns
//
// Backoff function.
// For N-th call, it waits for `initialInterval * r^N` or context to be done.
func ExponentialBackoff(initialInterval time.Duration, r float64) Backoff {
	interval := initialInterval
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			i := float64(interval) * r
			interval = time.Duration(int64(i))
			return nil
		}
	}
}

// Limit wraps b to allow at most n retries.
//
// After n calls, the Backoff returns ErrGaveUp without waiting.
func Limit(n int, b Backoff) Backoff {
	count := 0
	return func(ctx context.Context) error {
		if n <= count {
			return ErrGaveUp
		}
		count += 1
		return b(ctx)
	}
}

// Blocking calls f until it returns nil or non-retry error.
//
// f is called once immediately, and then again after each backoff
// while it returns an error wrapping ErrRetry.
//
// # Args
//
// - ctx: context
//
// - b: backoff function
//
// - f: function to be called.
//
// # Returns
//
// - T: last return value of f
//
// - error: error returned by f.
// When backoff stops retrying, the error wraps both of the reason and the last error of f.
func Blocking[T any](ctx context.Context, b Backoff, f func() (T, error)) (T, error) {
	for {
		last, err := f()
		if err == nil {
			return last, nil
		}
		if !errors.Is(err, ErrRetry) {
			return last, err
		}

		if berr := b(ctx); berr != nil {
			return last, fmt.Errorf("%w (last error: %w)", berr, err)
		}
	}
}

package index

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// IsRetryable checks if an error is worth retrying. Errors that report
// themselves as temporary (such as pathstore 5xx responses) qualify.
func IsRetryable(err error) bool {
	var tmp interface{ Temporary() bool }
	return errors.As(err, &tmp) && tmp.Temporary()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetries retries have been spent.
func withRetry[T any](ctx context.Context, backoff func(int) time.Duration, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 0; ; attempt++ {
		v, err = fn()
		if err == nil || !IsRetryable(err) || attempt >= MaxRetries {
			return v, err
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}

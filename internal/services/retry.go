package services

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// RetryPolicy is the single retry policy applied to every remote call.
//
// MaxAttempts counts the first attempt. Delay is fixed between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(op string, attempt int, err error)
}

// DefaultRetryPolicy returns 3 attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

// shouldRetry classifies err. Expired credentials and context errors are terminal.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if f, ok := AsFailure(err); ok {
		return f.Retryable()
	}
	return true
}

// Retry runs fn until it succeeds, fails with a terminal error, or the attempt budget is spent.
// The last error is returned unchanged.
func Retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		zero T
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		var result T
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !shouldRetry(err) || attempt == attempts {
			return zero, err
		}
		if p.OnRetry != nil {
			p.OnRetry(op, attempt, err)
		}
		if !sleep(ctx, p.Delay) {
			return zero, err
		}
	}
	return zero, err
}

// RetryErr is [Retry] for calls that return only an error.
func RetryErr(ctx context.Context, p RetryPolicy, op string, fn func(context.Context) error) error {
	_, err := Retry(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Err      error // last failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Policy is an exponential backoff retry policy
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter shortens each wait by a random fraction in [0, Jitter)
	Jitter float64

	// Retryable decides whether a failure is worth another attempt.
	// Nil retries every error except context cancellation.
	Retryable func(error) bool
}

// DefaultPolicy returns a policy suited to network calls
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// Delay returns the wait before the given retry (1 is the first retry)
func (p Policy) Delay(retry int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= p.Multiplier
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Backoff is Delay with jitter applied
func (p Policy) Backoff(retry int) time.Duration {
	d := p.Delay(retry)
	if p.Jitter <= 0 {
		return d
	}
	j := p.Jitter
	if j > 1 {
		j = 1
	}
	return d - time.Duration(rand.Float64()*j*float64(d))
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. Waiting between attempts stops when ctx is done.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is Policy.Do for functions that return a value
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	return run(ctx, p, nil, fn)
}

// beforeRetry runs after a retryable failure and before the backoff wait
type beforeRetry func(ctx context.Context, err error) error

func run[T any](ctx context.Context, p Policy, hook beforeRetry, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !p.retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}
		if hook != nil {
			if err := hook(ctx, err); err != nil {
				return zero, err
			}
		}
		if err := sleep(ctx, p.Backoff(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

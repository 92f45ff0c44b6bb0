package backup

import (
	"context"
	"time"
)

// RetryPolicy retries remote calls that fail transiently, waiting an
// exponentially growing delay clamped to [MinDelay, MaxDelay] between attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration

	// Retryable classifies an error as transient. Nil means nothing is retried.
	Retryable func(error) bool

	Logger Logger

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows 3 attempts with waits between 4 and 10 seconds.
func DefaultRetryPolicy(retryable func(error) bool, logger Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MinDelay:    4 * time.Second,
		MaxDelay:    10 * time.Second,
		Retryable:   retryable,
		Logger:      logger,
	}
}

// Delay returns the wait after the given (1-based) failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d < p.MinDelay {
		d = p.MinDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs fn under the policy. See Execute.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Execute calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. Non-retryable errors are returned unchanged after the
// first failure; exhaustion returns a *RemoteError wrapping the last error.
func Execute[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := p.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		logger.Debug("remote call finished", "op", op, "attempt", attempt, "ok", err == nil)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		wait := p.Delay(attempt)
		logger.Warn("remote call failed, retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, &RemoteError{Op: op, Attempts: attempts, Err: lastErr}
}

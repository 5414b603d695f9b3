package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy controls Retry. Zero fields take the defaults of
// DefaultRetryPolicy.
type RetryPolicy struct {
	MaxRetries    int           // Total attempts, including the first
	InitialDelay  time.Duration // Delay before the second attempt
	MaxDelay      time.Duration // Upper bound for any single delay
	BackoffFactor float64       // Growth of the delay after each attempt

	// ShouldRetry is consulted after every failed attempt but the last.
	// Returning false stops retrying. Nil retries every error.
	ShouldRetry func(err error, attempt int) bool
}

// DefaultRetryPolicy returns three attempts starting at one second and
// doubling up to thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxRetries <= 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = d.BackoffFactor
	}
	return p
}

// schedule returns the delays between attempts. Randomization is disabled
// so that delays are exactly InitialDelay, InitialDelay*BackoffFactor, ...
// capped at MaxDelay.
func (p RetryPolicy) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.RandomizationFactor = 0
	b.Multiplier = p.BackoffFactor
	b.MaxInterval = p.MaxDelay
	b.Reset()
	return b
}

// Permanent marks err so that Retry returns it at once.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry runs op until it succeeds, the policy is exhausted or ShouldRetry
// declines. On exhaustion the last error is returned unchanged. When ctx
// ends during a delay the last error is returned joined with ctx.Err().
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	_, err := RetryValue(
		ctx, policy, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, op(ctx)
		},
	)
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	policy = policy.withDefaults()
	delays := policy.schedule()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}

		if attempt == policy.MaxRetries {
			break
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(err, attempt) {
			break
		}

		timer := time.NewTimer(delays.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}

	return zero, lastErr
}

package fne

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds Retry. The delay doubles after each failed attempt
// and is capped at MaxDelay when set.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy makes three attempts, one second apart at first
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Delay:    time.Second,
		MaxDelay: 10 * time.Second,
	}
}

// Retryable reports whether err is worth another attempt: no answer was
// received, or the service failed with a 5xx status.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ServerSide()
}

// Retry calls op until it succeeds, fails with a non retryable error, or
// the policy is exhausted. The last error is returned.
//
// Certification is not idempotent on the service side: a network error
// after the request reached the service may certify the document twice.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	delay := policy.Delay
	for attempt := 1; ; attempt++ {
		res, err := op(ctx)
		if err == nil || !Retryable(err) || attempt >= policy.Attempts {
			return res, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, err
		case <-timer.C:
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
}

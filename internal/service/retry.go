package service

import (
	"context"
	"time"

	"wallet-ledger/pkg/apperror"
)

// RetryPolicy bounds how services retry Busy ledger operations.
type RetryPolicy struct {
	Attempts int           // Total attempts including the first
	Backoff  time.Duration // Base backoff, doubled after each failed attempt
}

// DefaultRetryPolicy matches the config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}
}

// retryOnBusy runs fn, retrying only retryable (Busy) failures with
// exponential backoff. Any other error, and the last Busy error once attempts
// are exhausted, is returned as-is. Client-facing errors are never retried.
func retryOnBusy(ctx context.Context, policy RetryPolicy, fn func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := policy.Backoff
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !apperror.IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return apperror.ErrBusy(ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

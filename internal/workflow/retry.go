package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// RetryPolicy bounds how store calls are retried on transport failures.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// permanent errors describe the data, not the transport; retrying cannot help.
func permanent(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

type retrier struct {
	policy RetryPolicy
	log    *slog.Logger
}

// call runs fn until it succeeds, fails permanently or exhausts the policy.
// Exhaustion is reported as a *TransportError.
func call[T any](ctx context.Context, r retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval

	attempts := r.policy.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	v, err := backoff.Retry[T](ctx, func() (T, error) {
		v, err := fn(ctx)
		if err != nil && permanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Warn("store call failed, retrying", "op", op, "error", err, "backoff", next)
		}),
	)
	if err == nil {
		return v, nil
	}
	// the final attempt's permanent error comes back still wrapped
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	if permanent(err) {
		return v, err
	}
	r.log.Error("store call failed", "op", op, "error", err)
	return v, &TransportError{Op: op, Err: err}
}

func exec(ctx context.Context, r retrier, op string, fn func(context.Context) error) error {
	_, err := call(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

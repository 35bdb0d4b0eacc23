// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vahan-scraper/internal/domain/entity"
)

// Permanent marks an error that must stop the retry loop immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it returns nil, returns a Permanent error, the policy's
// attempts are exhausted or ctx is done. op receives the 1-based attempt
// number. The last error is returned.
func Do(ctx context.Context, policy entity.RetryPolicy, op func(attempt int) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.Attempts()-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		return op(attempt)
	}, b)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

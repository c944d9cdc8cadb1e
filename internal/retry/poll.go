// Package retry holds the bounded polling helper used by the map pipeline.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errNotReady = errors.New("retry: condition not met")

// Options configures Poll.
type Options struct {
	// InitialDelay is waited once before the first check.
	InitialDelay time.Duration
	// Interval is the fixed delay between checks.
	Interval time.Duration
	// MaxRetries bounds the checks made after the first one.
	MaxRetries int
	// OnRetry is called with the 1-based retry number before each retry is scheduled.
	OnRetry func(retry int)
}

// Result describes how a poll ended.
type Result struct {
	Ready   bool
	Retries int
}

// Poll evaluates check until it returns true or MaxRetries retries have been spent. Exhausting the
// retries is not an error: the result reports Ready=false. The only error returned is the context's.
func Poll(ctx context.Context, check func() bool, opts Options) (Result, error) {
	if err := Sleep(ctx, opts.InitialDelay); err != nil {
		return Result{}, err
	}

	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var res Result
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.Interval), uint64(maxRetries)),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		if check() {
			res.Ready = true
			return nil
		}
		return errNotReady
	}, policy, func(error, time.Duration) {
		res.Retries++
		if opts.OnRetry != nil {
			opts.OnRetry(res.Retries)
		}
	})

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, errNotReady):
		return res, nil
	default:
		return res, err
	}
}

// Sleep waits for d or until ctx is done, whichever comes first.
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

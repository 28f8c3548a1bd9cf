package controller

import (
	"context"
	"time"
)

// searchRetry bounds partner-search attempts: a fixed number of tries with
// exponential backoff between them, cancellable through the context.
type searchRetry struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

func (r searchRetry) run(ctx context.Context, attempt func(ctx context.Context) error) error {
	if r.attempts < 1 {
		r.attempts = 1
	}

	backoff := r.initial
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if i == r.attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > r.max {
			backoff = r.max
		}
	}
	return lastErr
}

package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchRetry_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("first success returns immediately", func(t *testing.T) {
		r := searchRetry{attempts: 3, initial: time.Hour, max: time.Hour}

		calls := 0
		err := r.run(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until an attempt succeeds", func(t *testing.T) {
		r := searchRetry{attempts: 3, initial: time.Millisecond, max: time.Millisecond}

		calls := 0
		err := r.run(ctx, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("no partner")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns the last error when attempts are exhausted", func(t *testing.T) {
		r := searchRetry{attempts: 2, initial: time.Millisecond, max: time.Millisecond}

		lastErr := errors.New("still no partner")
		calls := 0
		err := r.run(ctx, func(ctx context.Context) error {
			calls++
			return lastErr
		})

		assert.Equal(t, lastErr, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		r := searchRetry{initial: time.Millisecond, max: time.Millisecond}

		calls := 0
		_ = r.run(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("nope")
		})

		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation interrupts the backoff wait", func(t *testing.T) {
		r := searchRetry{attempts: 5, initial: time.Hour, max: time.Hour}

		ctx, cancel := context.WithCancel(context.Background())
		attempted := make(chan struct{}, 5)
		done := make(chan error, 1)
		go func() {
			done <- r.run(ctx, func(ctx context.Context) error {
				attempted <- struct{}{}
				return errors.New("no partner")
			})
		}()

		// Let the first attempt land, then cancel during the hour-long wait.
		<-attempted
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("run did not return after cancellation")
		}
		assert.Len(t, attempted, 0)
	})

	t.Run("pre-cancelled context never attempts", func(t *testing.T) {
		r := searchRetry{attempts: 3, initial: time.Millisecond, max: time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := r.run(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})
}

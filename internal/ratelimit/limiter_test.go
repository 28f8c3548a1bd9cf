package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

func testRules() map[model.ActionKind]Rule {
	return map[model.ActionKind]Rule{
		model.ActionMessage:      {Max: 3, Window: time.Minute},
		model.ActionSkip:         {Max: 2, Window: time.Minute},
		model.ActionSessionStart: {Max: 5, Window: time.Minute},
	}
}

func TestLimiter_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("allows actions under the limit", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		for i := 0; i < 3; i++ {
			d := limiter.Check(ctx, "user-1", model.ActionMessage)
			assert.True(t, d.Allowed)
			limiter.Record(ctx, "user-1", model.ActionMessage)
		}
	})

	t.Run("denies the action after the limit with retry-after", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		for i := 0; i < 3; i++ {
			d := limiter.Check(ctx, "user-1", model.ActionMessage)
			assert.True(t, d.Allowed)
			limiter.Record(ctx, "user-1", model.ActionMessage)
		}

		d := limiter.Check(ctx, "user-1", model.ActionMessage)
		assert.False(t, d.Allowed)
		assert.GreaterOrEqual(t, d.RetryAfterSeconds, 1)
		assert.LessOrEqual(t, d.RetryAfterSeconds, 60)
		assert.NotEmpty(t, d.Message)
	})

	t.Run("windows are independent per action", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		for i := 0; i < 2; i++ {
			limiter.Record(ctx, "user-1", model.ActionSkip)
		}

		assert.False(t, limiter.Check(ctx, "user-1", model.ActionSkip).Allowed)
		assert.True(t, limiter.Check(ctx, "user-1", model.ActionMessage).Allowed)
	})

	t.Run("windows are independent per user", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		for i := 0; i < 2; i++ {
			limiter.Record(ctx, "user-1", model.ActionSkip)
		}

		assert.False(t, limiter.Check(ctx, "user-1", model.ActionSkip).Allowed)
		assert.True(t, limiter.Check(ctx, "user-2", model.ActionSkip).Allowed)
	})

	t.Run("check without record does not consume the budget", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		for i := 0; i < 10; i++ {
			d := limiter.Check(ctx, "user-1", model.ActionMessage)
			assert.True(t, d.Allowed)
		}
	})

	t.Run("unknown action is allowed", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 0)

		d := limiter.Check(ctx, "user-1", model.ActionKind("unknown"))
		assert.True(t, d.Allowed)
	})

	t.Run("denies when the store fails", func(t *testing.T) {
		limiter := NewLimiterWithRules(&failingStore{}, testRules(), 0)

		d := limiter.Check(ctx, "user-1", model.ActionMessage)
		assert.False(t, d.Allowed)
	})
}

func TestLimiter_SessionCooldown(t *testing.T) {
	ctx := context.Background()

	t.Run("first start is allowed, immediate restart is not", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), 5*time.Second)

		d := limiter.Check(ctx, "user-1", model.ActionSessionStart)
		assert.True(t, d.Allowed)
		limiter.Record(ctx, "user-1", model.ActionSessionStart)

		d = limiter.Check(ctx, "user-1", model.ActionSessionStart)
		assert.False(t, d.Allowed)
		assert.True(t, d.Cooldown)
		assert.GreaterOrEqual(t, d.RetryAfterSeconds, 1)
	})

	t.Run("cooldown expires", func(t *testing.T) {
		store := NewMemoryStore()
		limiter := NewLimiterWithRules(store, testRules(), 30*time.Millisecond)

		limiter.Record(ctx, "user-1", model.ActionSessionStart)
		time.Sleep(50 * time.Millisecond)

		d := limiter.Check(ctx, "user-1", model.ActionSessionStart)
		assert.True(t, d.Allowed)
	})

	t.Run("cooldown does not affect other actions", func(t *testing.T) {
		limiter := NewLimiterWithRules(NewMemoryStore(), testRules(), time.Hour)

		limiter.Record(ctx, "user-1", model.ActionSessionStart)

		assert.True(t, limiter.Check(ctx, "user-1", model.ActionMessage).Allowed)
	})
}

func TestMemoryStore_WindowSliding(t *testing.T) {
	ctx := context.Background()

	current := time.Now()
	store := NewMemoryStore()
	store.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		assert.NoError(t, store.Record(ctx, "k", time.Minute))
	}

	count, _, err := store.Count(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	// Advance past the window: all entries expire.
	current = current.Add(61 * time.Second)
	count, _, err = store.Count(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

type failingStore struct{}

func (f *failingStore) Count(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func (f *failingStore) Record(ctx context.Context, key string, window time.Duration) error {
	return errors.New("store down")
}

func (f *failingStore) Last(ctx context.Context, key string) (time.Time, error) {
	return time.Time{}, errors.New("store down")
}

func (f *failingStore) Stamp(ctx context.Context, key string, ttl time.Duration) error {
	return errors.New("store down")
}

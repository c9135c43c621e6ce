package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestState_Err(t *testing.T) {
	tests := []struct {
		state State
		want  error
	}{
		{StateNone, nil},
		{StateInProgress, ErrAlreadyInProgress},
		{StateCompleted, ErrAlreadyCompleted},
		{StateFailed, ErrAlreadyFailed},
		{State("garbage"), ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.ErrorIs(t, tt.state.Err(), tt.want)
		})
	}
}

func TestRedis_Exec(t *testing.T) {
	client := newRedis(t)
	guard := New(client)
	ctx := context.Background()

	t.Run("success is remembered", func(t *testing.T) {
		// Arrange
		calls := 0
		fn := func(context.Context) error { calls++; return nil }

		// Act
		first := guard.Exec(ctx, "ok", fn, WithStateTTL(time.Hour))
		second := guard.Exec(ctx, "ok", fn)

		// Assert
		require.NoError(t, first)
		assert.ErrorIs(t, second, ErrAlreadyCompleted)
		assert.Equal(t, 1, calls)
		st, err := guard.State(ctx, "ok")
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, st)
		ttl := client.PTTL(ctx, keyPrefix+"ok").Val()
		assert.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("failure is remembered and returned", func(t *testing.T) {
		// Arrange
		boom := errors.New("boom")

		// Act
		first := guard.Exec(ctx, "fail", func(context.Context) error { return boom })
		second := guard.Exec(ctx, "fail", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, first, boom)
		assert.ErrorIs(t, second, ErrAlreadyFailed)
	})

	t.Run("concurrent callers run once", func(t *testing.T) {
		// Arrange
		var calls atomic.Int32
		release := make(chan struct{})
		var wg sync.WaitGroup
		errs := make([]error, 5)

		// Act
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = guard.Exec(ctx, "race", func(context.Context) error {
					calls.Add(1)
					<-release
					return nil
				})
			}()
		}
		require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()

		// Assert
		assert.Equal(t, int32(1), calls.Load())
		inProgress := 0
		for _, err := range errs {
			if errors.Is(err, ErrAlreadyInProgress) {
				inProgress++
			}
		}
		assert.Equal(t, 4, inProgress)
	})

	t.Run("expired claim is not overwritten by the stale worker", func(t *testing.T) {
		// Act
		err := guard.Exec(ctx, "stale", func(context.Context) error {
			require.NoError(t, client.Set(ctx, keyPrefix+"stale", string(StateCompleted), time.Minute).Err())
			return errors.New("late failure")
		})

		// Assert
		require.Error(t, err)
		st, stErr := guard.State(ctx, "stale")
		require.NoError(t, stErr)
		assert.Equal(t, StateCompleted, st)
	})

	t.Run("unknown stored value is invalid", func(t *testing.T) {
		// Arrange
		require.NoError(t, client.Set(ctx, keyPrefix+"junk", "weird", time.Minute).Err())

		// Act
		err := guard.Exec(ctx, "junk", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

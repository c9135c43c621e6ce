package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("collects job errors but not cancellation", func(t *testing.T) {
		// Arrange
		m := NewManager(4)
		boom := errors.New("boom")

		// Act
		require.NoError(t, m.Go(context.Background(), "failing", func(context.Context) error { return boom }))
		require.NoError(t, m.Go(context.Background(), "cancelled", func(context.Context) error { return context.Canceled }))
		require.NoError(t, m.Go(context.Background(), "ok", func(context.Context) error { return nil }))
		err := m.Wait()

		// Assert
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failing")
		assert.NotContains(t, err.Error(), "cancelled")
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		// Arrange
		m := NewManager(1)

		// Act
		require.NoError(t, m.Go(context.Background(), "panicky", func(context.Context) error { panic("oops") }))
		err := m.Wait()

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicky: panic: oops")
	})

	t.Run("rejects jobs over the limit", func(t *testing.T) {
		// Arrange
		m := NewManager(1)
		release := make(chan struct{})
		require.NoError(t, m.Go(context.Background(), "blocking", func(context.Context) error {
			<-release
			return nil
		}))

		// Act
		err := m.Go(context.Background(), "extra", func(context.Context) error { return nil })
		close(release)

		// Assert
		assert.ErrorIs(t, err, ErrLimitReached)
		assert.NoError(t, m.Wait())
	})

	t.Run("rejects jobs after wait", func(t *testing.T) {
		// Arrange
		m := NewManager(1)
		require.NoError(t, m.Wait())

		// Act
		err := m.Go(context.Background(), "late", func(context.Context) error { return nil })

		// Assert
		assert.ErrorIs(t, err, ErrStopped)
	})
}

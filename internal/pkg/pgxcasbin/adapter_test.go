package pgxcasbin

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/pgtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "identity_casbin_rules"

func TestEnforcer(t *testing.T) {
	pool := pgtest.New(t)
	ctx := context.Background()

	e, w, err := NewEnforcer(ctx, pool, table, "casbin_test")
	require.NoError(t, err)
	t.Cleanup(w.Close)

	t.Run("seeded member policy applies once the role is granted", func(t *testing.T) {
		// Arrange
		ok, err := e.Enforce("7", "finance:transactions", "create")
		require.NoError(t, err)
		require.False(t, ok)

		// Act
		added, err := e.AddRoleForUser("7", "member")

		// Assert
		require.NoError(t, err)
		assert.True(t, added)
		ok, err = e.Enforce("7", "finance:transactions", "create")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = e.Enforce("7", "identity:users", "delete")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("grants are persisted", func(t *testing.T) {
		// Arrange
		fresh, fw, err := NewEnforcer(ctx, pool, table, "casbin_test")
		require.NoError(t, err)
		t.Cleanup(fw.Close)

		// Act
		roles, err := fresh.GetRolesForUser("7")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"member"}, roles)
	})

	t.Run("removed grants are deleted", func(t *testing.T) {
		// Act
		_, err := e.DeleteRoleForUser("7", "member")
		require.NoError(t, err)

		// Assert
		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM identity_casbin_rules WHERE ptype = 'g' AND v0 = '7'`).Scan(&n))
		assert.Zero(t, n)
	})
}

func TestAdapter_RemoveFilteredPolicy(t *testing.T) {
	// Arrange
	pool := pgtest.New(t)
	a := NewAdapter(pool, table)
	require.NoError(t, a.AddPolicies("g", "g", [][]string{{"1", "member"}, {"2", "member"}, {"3", "admin"}}))

	// Act
	err := a.RemoveFilteredPolicy("g", "g", 1, "member")

	// Assert
	require.NoError(t, err)
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM identity_casbin_rules WHERE ptype = 'g'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestAdapter_RuleTooLong(t *testing.T) {
	// Arrange
	a := NewAdapter(nil, table)

	// Act
	err := a.RemoveFilteredPolicy("p", "p", 4, "a", "b", "c")

	// Assert
	assert.ErrorIs(t, err, ErrRuleTooLong)
}

func TestWatcher_NotifiesOtherInstances(t *testing.T) {
	// Arrange
	pool := pgtest.New(t)
	ctx := context.Background()

	sender, err := NewWatcher(ctx, pool, "watcher_test")
	require.NoError(t, err)
	t.Cleanup(sender.Close)
	receiver, err := NewWatcher(ctx, pool, "watcher_test")
	require.NoError(t, err)
	t.Cleanup(receiver.Close)

	self := make(chan string, 1)
	other := make(chan string, 1)
	forward := func(ch chan string) func(string) {
		return func(s string) {
			select {
			case ch <- s:
			default:
			}
		}
	}
	require.NoError(t, sender.SetUpdateCallback(forward(self)))
	require.NoError(t, receiver.SetUpdateCallback(forward(other)))

	// Act
	var got string
	received := assert.Eventually(t, func() bool {
		if sender.Update() != nil {
			return false
		}
		select {
		case got = <-other:
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	// Assert
	require.True(t, received)
	assert.Equal(t, sender.id, got)
	assert.Empty(t, self)
}

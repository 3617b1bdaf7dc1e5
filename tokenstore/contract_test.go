package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("set and get", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Set(ctx, models.Tokens{Access: "a1", Refresh: "r1"}))
		tokens, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.Tokens{Access: "a1", Refresh: "r1"}, tokens)
		assert.True(t, s.HasAccess(ctx))
	})

	t.Run("partial set keeps refresh", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Set(ctx, models.Tokens{Access: "a1", Refresh: "r1"}))
		require.NoError(t, s.Set(ctx, models.Tokens{Access: "a2"}))

		tokens, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.Tokens{Access: "a2", Refresh: "r1"}, tokens)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Set(ctx, models.Tokens{Access: "a1", Refresh: "r1"}))
		require.NoError(t, s.SetUser(ctx, models.User{Email: "u@x.com", FullName: "U"}))
		require.NoError(t, s.MarkTabScoped(ctx))

		require.NoError(t, s.Clear(ctx))
		once, err := s.Session(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Clear(ctx))
		twice, err := s.Session(ctx)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.True(t, twice.LoggedOut())
		assert.Nil(t, twice.User)
		assert.False(t, twice.TabScoped)
		assert.False(t, s.HasAccess(ctx))
	})

	t.Run("user and session flag", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		user, err := s.User(ctx)
		require.NoError(t, err)
		assert.Nil(t, user)

		require.NoError(t, s.SetUser(ctx, models.User{Email: "u@x.com", FullName: "Jane"}))
		require.NoError(t, s.MarkTabScoped(ctx))

		session, err := s.Session(ctx)
		require.NoError(t, err)
		require.NotNil(t, session.User)
		assert.Equal(t, "Jane", session.User.FullName)
		assert.True(t, session.TabScoped)
	})

	t.Run("watch reports writes and clear", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := newStore(t)

		changes, err := s.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, models.Tokens{Access: "a1"}))
		assert.Equal(t, enums.StoreKeyAccess, nextChange(t, changes).Key)

		require.NoError(t, s.Clear(ctx))
		assert.Equal(t, enums.StoreKeyAll, nextChange(t, changes).Key)
	})
}

func nextChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-changes:
		require.True(t, ok, "watch channel closed")
		return c
	case <-time.After(3 * time.Second):
		require.FailNow(t, "no change received")
		return Change{}
	}
}

func tokensFor(access, refresh string) models.Tokens {
	return models.Tokens{Access: access, Refresh: refresh}
}

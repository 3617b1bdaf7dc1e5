package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/router"
	"github.com/octabyte/taskdesk/session"
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogout struct {
	refreshes []string
	err       error
}

func (r *recordingLogout) Logout(_ context.Context, refresh string) error {
	r.refreshes = append(r.refreshes, refresh)
	return r.err
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name      string
		tokens    models.Tokens
		serverErr error
		wantCalls []string
	}{
		{name: "blacklists refresh", tokens: models.Tokens{Access: "a1", Refresh: "r1"}, wantCalls: []string{"r1"}},
		{name: "server failure still clears", tokens: models.Tokens{Access: "a1", Refresh: "r1"}, serverErr: errors.New("boom"), wantCalls: []string{"r1"}},
		{name: "no refresh skips server", tokens: models.Tokens{Access: "a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := tokenstore.NewMemoryStore()
			require.NoError(t, store.Set(ctx, tt.tokens))
			require.NoError(t, store.SetUser(ctx, models.User{Email: "a@b.co"}))
			client := &recordingLogout{err: tt.serverErr}
			nav := router.New()

			require.NoError(t, session.Logout(ctx, client, store, nav))

			assert.Equal(t, tt.wantCalls, client.refreshes)
			sess, err := store.Session(ctx)
			require.NoError(t, err)
			assert.True(t, sess.LoggedOut())
			assert.Nil(t, sess.User)
			assert.Equal(t, enums.RouteLogin, nav.Current().Path)
		})
	}
}

package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "taskdesk", DefaultFileName))
	require.NoError(t, err)
	return s
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return newTestFileStore(t)
	})
}

func TestFileStorePermissions(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, s.Set(context.Background(), models.Tokens{Access: "a1"}))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestFileStoreCorruptFileIsLoggedOut(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), filePerm))

	_, err := s.Get(ctx)
	assert.Error(t, err)
	assert.Equal(t, models.Tokens{}, Load(ctx, s))
	assert.False(t, s.HasAccess(ctx))

	require.NoError(t, s.Set(ctx, models.Tokens{Access: "a1"}))
	assert.True(t, s.HasAccess(ctx))
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := newTestFileStore(t)
	reader, err := NewFileStore(writer.Path())
	require.NoError(t, err)

	changes, err := reader.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, writer.Set(ctx, models.Tokens{Access: "a1", Refresh: "r1"}))
	first := nextChange(t, changes)
	assert.Contains(t, []enums.StoreKey{enums.StoreKeyAccess, enums.StoreKeyRefresh}, first.Key)

	tokens, err := reader.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a1", tokens.Access)
}

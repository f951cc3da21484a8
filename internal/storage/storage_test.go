package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow-console/internal/model"
)

func exerciseStorage(t *testing.T, store Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := store.GetItem(ctx, "access_token")
	require.ErrorIs(t, err, model.ErrItemNotFound)

	require.NoError(t, store.SetItem(ctx, "access_token", "a1"))
	require.NoError(t, store.SetItem(ctx, "refresh_token", "r1"))
	require.NoError(t, store.SetItem(ctx, "access_token", "a2"))

	value, err := store.GetItem(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "a2", value)

	require.NoError(t, store.RemoveItem(ctx, "access_token"))
	require.NoError(t, store.RemoveItem(ctx, "access_token"))
	_, err = store.GetItem(ctx, "access_token")
	require.ErrorIs(t, err, model.ErrItemNotFound)

	value, err = store.GetItem(ctx, "refresh_token")
	require.NoError(t, err)
	require.Equal(t, "r1", value)
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()
	exerciseStorage(t, NewMemory())
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	t.Run("basic operations", func(t *testing.T) {
		store, err := NewFile(filepath.Join(t.TempDir(), "state", "storage.json"), "")
		require.NoError(t, err)
		exerciseStorage(t, store)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		store, err := NewFile(path, "")
		require.NoError(t, err)
		require.NoError(t, store.SetItem(context.Background(), "access_token", "persisted"))

		reopened, err := NewFile(path, "")
		require.NoError(t, err)
		value, err := reopened.GetItem(context.Background(), "access_token")
		require.NoError(t, err)
		require.Equal(t, "persisted", value)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("sealed with secret", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		store, err := NewFile(path, "s3cret")
		require.NoError(t, err)
		require.NoError(t, store.SetItem(context.Background(), "access_token", "header.payload.sig"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "header.payload.sig")

		reopened, err := NewFile(path, "s3cret")
		require.NoError(t, err)
		value, err := reopened.GetItem(context.Background(), "access_token")
		require.NoError(t, err)
		require.Equal(t, "header.payload.sig", value)

		_, err = NewFile(path, "other")
		require.ErrorIs(t, err, model.ErrSealedStorage)
	})

	t.Run("requires path", func(t *testing.T) {
		_, err := NewFile("  ", "")
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

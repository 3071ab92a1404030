package credentials

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRememberedCredentialSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.db")
	ctx := context.Background()

	store := openTestStore(t, path)
	_, ok := store.Token()
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, "remembered", true))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	token, ok := reopened.Token()
	require.True(t, ok)
	require.Equal(t, "remembered", token)
}

func TestSessionCredentialIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	store := openTestStore(t, path)
	require.NoError(t, store.Save(ctx, "session-only", false))
	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "session-only", token)
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	_, ok = reopened.Token()
	require.False(t, ok)
}

func TestPersistentCredentialWins(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "credentials.db"))

	require.NoError(t, store.Save(ctx, "remembered", true))
	require.NoError(t, store.Save(ctx, "session", false))

	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "remembered", token)
}

func TestClearRemovesBothLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	store := openTestStore(t, path)
	require.NoError(t, store.Save(ctx, "remembered", true))
	require.NoError(t, store.Save(ctx, "session", false))
	require.NoError(t, store.Clear(ctx))

	_, ok := store.Token()
	require.False(t, ok)
	require.NoError(t, store.Close())

	reopened := openTestStore(t, path)
	_, ok = reopened.Token()
	require.False(t, ok)
}

func TestSaveRejectsBlankToken(t *testing.T) {
	store := openTestStore(t, "")
	require.ErrorIs(t, store.Save(context.Background(), "  ", false), ErrEmptyToken)
}

func TestMemoryOnlyStore(t *testing.T) {
	store := openTestStore(t, "")
	require.NoError(t, store.Save(context.Background(), "tok", true))

	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "tok", token)
}

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemStoreRoundTrip(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("ciphertext bytes")
	require.NoError(t, store.Put(ctx, "abc-notes.txt.enc", data))

	got, err := store.Get(ctx, "abc-notes.txt.enc")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	exists, err := store.Exists(ctx, "abc-notes.txt.enc")
	require.NoError(t, err)
	assert.True(t, exists)

	locators, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc-notes.txt.enc"}, locators)
}

func TestFileSystemStoreGetMissing(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.enc")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFileSystemStoreDeleteIdempotent(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.enc", []byte("x")))
	require.NoError(t, store.Delete(ctx, "a.enc"))

	// Second delete of the same locator is not an error.
	require.NoError(t, store.Delete(ctx, "a.enc"))

	exists, err := store.Exists(ctx, "a.enc")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileSystemStoreOverwrite(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.enc", []byte("old")))
	require.NoError(t, store.Put(ctx, "a.enc", []byte("new")))

	got, err := store.Get(ctx, "a.enc")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestFileSystemStoreRejectsBadLocators(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, locator := range []string{"", "../escape", "a/b", `a\b`, "."} {
		assert.Error(t, store.Put(ctx, locator, []byte("x")), "locator %q", locator)
		_, err := store.Get(ctx, locator)
		assert.Error(t, err, "locator %q", locator)
	}
}

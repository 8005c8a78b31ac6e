package blobstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/blobstore"
)

func TestFilesystem_PutGetExistsDelete(t *testing.T) {
	dir := t.TempDir()

	store, err := blobstore.NewFilesystem(dir)
	require.NoError(t, err)

	ok, err := store.Exists("deadbeef")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put("deadbeef", []byte("content")))

	ok, err = store.Exists("deadbeef")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := store.Get("deadbeef")
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	// Idempotent put must not rewrite existing content.
	require.NoError(t, store.Put("deadbeef", []byte("different")))
	data, err = store.Get("deadbeef")
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	require.NoError(t, store.Delete("deadbeef"))

	_, err = store.Get("deadbeef")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	// Deleting an absent blob is not an error.
	require.NoError(t, store.Delete("deadbeef"))
}

func TestFilesystem_GetMissing(t *testing.T) {
	dir := t.TempDir()

	store, err := blobstore.NewFilesystem(dir)
	require.NoError(t, err)

	_, err = store.Get("nonexistent")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

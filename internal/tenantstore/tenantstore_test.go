package tenantstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/blobstore"
	"github.com/alari/marble-next/internal/hasher"
	"github.com/alari/marble-next/internal/metadatastore"
	"github.com/alari/marble-next/internal/tenantstore"
)

func newTestStore(t *testing.T) *tenantstore.Store {
	t.Helper()

	dir := t.TempDir()

	blobs, err := blobstore.NewFilesystem(dir)
	require.NoError(t, err)

	meta, err := metadatastore.Open(filepath.Join(dir, "meta.db"), 64)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	return tenantstore.New(hasher.New(blobs), meta)
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	tenant := metadatastore.TenantID("t1")

	created, err := s.Write(tenant, "notes/day.md", []byte("Hello"), "")
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.Write(tenant, "notes/day.md", []byte("Hello world"), "")
	require.NoError(t, err)
	require.False(t, created)

	data, err := s.Read(tenant, "notes/day.md")
	require.NoError(t, err)
	require.Equal(t, "Hello world", string(data))

	md, err := s.Metadata(tenant, "notes/day.md")
	require.NoError(t, err)
	require.Equal(t, "text/markdown", md.ContentType)
}

func TestCreateDirectory_Ancestors(t *testing.T) {
	s := newTestStore(t)
	tenant := metadatastore.TenantID("t1")

	require.NoError(t, s.CreateDirectory(tenant, "x/y/z"))

	for _, d := range []string{"x", "x/y", "x/y/z"} {
		md, err := s.Metadata(tenant, d+"/.dir")
		require.NoError(t, err)
		require.True(t, md.IsDirectory)

		// Metadata/Exists also resolve the bare directory path,
		// falling back to its .dir sentinel record.
		md, err = s.Metadata(tenant, d)
		require.NoError(t, err)
		require.True(t, md.IsDirectory)
		require.Equal(t, d, md.Path)

		exists, err := s.Exists(tenant, d)
		require.NoError(t, err)
		require.True(t, exists)
	}

	// Idempotent.
	require.NoError(t, s.CreateDirectory(tenant, "x/y/z"))
}

func TestDelete_DirectoryRemovesSentinel(t *testing.T) {
	s := newTestStore(t)
	tenant := metadatastore.TenantID("t1")

	require.NoError(t, s.CreateDirectory(tenant, "x"))

	require.NoError(t, s.Delete(tenant, "x"))

	exists, err := s.Exists(tenant, "x")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestList_FiltersSentinelAndScoped(t *testing.T) {
	s := newTestStore(t)
	tenant := metadatastore.TenantID("t1")

	_, err := s.Write(tenant, "a.md", []byte("a"), "")
	require.NoError(t, err)
	require.NoError(t, s.CreateDirectory(tenant, "b"))
	_, err = s.Write(tenant, "b/c.md", []byte("c"), "")
	require.NoError(t, err)

	children, err := s.List(tenant, tenantstore.RootPath)
	require.NoError(t, err)

	var paths []string
	for _, c := range children {
		paths = append(paths, c.Path)
	}

	require.ElementsMatch(t, []string{"a.md", "b/.dir", "b/c.md"}, paths)
}

func TestDelete_SoftDeletesAndBlobRetained(t *testing.T) {
	s := newTestStore(t)
	tenant := metadatastore.TenantID("t1")

	_, err := s.Write(tenant, "a.md", []byte("content"), "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(tenant, "a.md"))

	exists, err := s.Exists(tenant, "a.md")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = s.Read(tenant, "a.md")
	require.ErrorIs(t, err, tenantstore.ErrNotFound)
}

func TestTenantIsolation_Exists(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Write("t1", "shared.md", []byte("A"), "")
	require.NoError(t, err)

	exists, err := s.Exists("t2", "shared.md")
	require.NoError(t, err)
	require.False(t, exists)
}

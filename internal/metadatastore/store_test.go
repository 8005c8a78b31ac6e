package metadatastore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/hasher"
	"github.com/alari/marble-next/internal/metadatastore"
)

func openTestStore(t *testing.T) *metadatastore.Store {
	t.Helper()

	s, err := metadatastore.Open(filepath.Join(t.TempDir(), "meta.db"), 16)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestCreateFindUpdateDelete(t *testing.T) {
	s := openTestStore(t)
	tenant := metadatastore.TenantID("tenant-1")

	_, err := s.FindByPath(tenant, "/notes/day.md")
	require.ErrorIs(t, err, metadatastore.ErrNotFound)

	created, err := s.Create(&metadatastore.FileRecord{
		Tenant:      tenant,
		Path:        "/notes/day.md",
		ContentHash: hasher.Sum([]byte("Hello")),
		ContentType: "text/markdown",
		Size:        5,
	})
	require.NoError(t, err)
	require.False(t, created.IsDeleted)

	_, err = s.Create(&metadatastore.FileRecord{
		Tenant:      tenant,
		Path:        "/notes/day.md",
		ContentHash: hasher.Sum([]byte("Hello")),
		ContentType: "text/markdown",
		Size:        5,
	})
	require.ErrorIs(t, err, metadatastore.ErrAlreadyExists)

	found, err := s.FindByPath(tenant, "/notes/day.md")
	require.NoError(t, err)
	require.Equal(t, created.ContentHash, found.ContentHash)

	updated, err := s.Update(&metadatastore.FileRecord{
		Tenant:      tenant,
		Path:        "/notes/day.md",
		ContentHash: hasher.Sum([]byte("Hello world")),
		ContentType: "text/markdown",
		Size:        11,
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), updated.Size)
	require.True(t, updated.UpdatedAt.Equal(updated.UpdatedAt))

	require.NoError(t, s.MarkDeleted(tenant, "/notes/day.md"))

	_, err = s.FindByPath(tenant, "/notes/day.md")
	require.ErrorIs(t, err, metadatastore.ErrNotFound)

	// A new record may succeed a tombstone without copying history.
	_, err = s.Create(&metadatastore.FileRecord{
		Tenant:      tenant,
		Path:        "/notes/day.md",
		ContentHash: hasher.Sum([]byte("fresh")),
		ContentType: "text/markdown",
		Size:        5,
	})
	require.NoError(t, err)
}

func TestTenantIsolation(t *testing.T) {
	s := openTestStore(t)

	t1 := metadatastore.TenantID("t1")
	t2 := metadatastore.TenantID("t2")

	_, err := s.Create(&metadatastore.FileRecord{
		Tenant: t1, Path: "/shared.md", ContentHash: hasher.Sum([]byte("A")), ContentType: "text/markdown", Size: 1,
	})
	require.NoError(t, err)

	_, err = s.FindByPath(t2, "/shared.md")
	require.ErrorIs(t, err, metadatastore.ErrNotFound)

	_, err = s.Create(&metadatastore.FileRecord{
		Tenant: t2, Path: "/shared.md", ContentHash: hasher.Sum([]byte("B")), ContentType: "text/markdown", Size: 1,
	})
	require.NoError(t, err)

	r1, err := s.FindByPath(t1, "/shared.md")
	require.NoError(t, err)
	require.Equal(t, hasher.Sum([]byte("A")), r1.ContentHash)

	r2, err := s.FindByPath(t2, "/shared.md")
	require.NoError(t, err)
	require.Equal(t, hasher.Sum([]byte("B")), r2.ContentHash)
}

func TestListByPrefix(t *testing.T) {
	s := openTestStore(t)
	tenant := metadatastore.TenantID("tenant-1")

	for _, p := range []string{"/a.md", "/b/.dir", "/b/c.md"} {
		_, err := s.Create(&metadatastore.FileRecord{
			Tenant: tenant, Path: p, ContentHash: hasher.EmptyHash, ContentType: "application/octet-stream", Size: 0,
		})
		require.NoError(t, err)
	}

	recs, err := s.ListByPrefix(tenant, "/b/", false)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestEnsureUser(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.EnsureUser("alice")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.EnsureUser("alice")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	id3, err := s.EnsureUser("bob")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

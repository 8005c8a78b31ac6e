package hasher_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/blobstore/blobstoretesting"
	"github.com/alari/marble-next/internal/hasher"
)

func TestSum_Deterministic(t *testing.T) {
	require.Equal(t, hasher.Sum([]byte("hello")), hasher.Sum([]byte("hello")))
	require.NotEqual(t, hasher.Sum([]byte("hello")), hasher.Sum([]byte("world")))
}

func TestStore_Dedup(t *testing.T) {
	mem := blobstoretesting.NewInMemory()
	h := hasher.New(mem)

	h1, err := h.Store([]byte("payload"))
	require.NoError(t, err)

	h2, err := h.Store([]byte("payload"))
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Equal(t, 1, mem.Count())
}

func TestStoreVerified_Mismatch(t *testing.T) {
	mem := blobstoretesting.NewInMemory()
	h := hasher.New(mem)

	_, err := h.StoreVerified([]byte("payload"), hasher.Sum([]byte("other")))
	require.ErrorIs(t, err, hasher.ErrHashMismatch)
	require.Equal(t, 0, mem.Count())
}

func TestRoundTrip(t *testing.T) {
	mem := blobstoretesting.NewInMemory()
	h := hasher.New(mem)

	hash, err := h.Store([]byte("round trip"))
	require.NoError(t, err)

	data, err := h.Get(hash)
	require.NoError(t, err)
	require.Equal(t, "round trip", string(data))
}

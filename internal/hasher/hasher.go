// Package hasher computes the canonical content hash used to address
// blobs in the store and provides dedup-aware put/get helpers on top
// of a blobstore.Store.
package hasher

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/alari/marble-next/internal/blobstore"
)

// ErrHashMismatch is returned by StoreVerified when the computed hash
// does not match the hash the caller expected.
var ErrHashMismatch = errors.New("hasher: content hash mismatch")

// Hash is a collision-resistant, fixed-width, printable identifier
// derived purely from a byte sequence: BLAKE3-256 encoded as
// URL-safe, unpadded base64. Empty string is never a valid Hash.
type Hash string

// EmptyHash is the hash of the zero-length byte sequence; directory
// records always point at it.
var EmptyHash = Sum(nil)

// Sum computes the canonical hash of data. It is a pure function.
func Sum(data []byte) Hash {
	sum := blake3.Sum256(data)
	return Hash(base64.RawURLEncoding.EncodeToString(sum[:]))
}

// Hasher computes hashes and stores/fetches the corresponding blobs,
// deduplicating identical content across all tenants.
type Hasher struct {
	blobs blobstore.Store
}

// New returns a Hasher backed by the given blob store.
func New(blobs blobstore.Store) *Hasher {
	return &Hasher{blobs: blobs}
}

// Store computes the hash of data and writes it to the blob store if
// not already present, returning the hash. Idempotent on data.
func (h *Hasher) Store(data []byte) (Hash, error) {
	hash := Sum(data)
	if err := h.blobs.Put(string(hash), data); err != nil {
		return "", errors.Wrapf(err, "storing blob %s", hash)
	}

	return hash, nil
}

// StoreVerified behaves like Store but refuses to write if the
// computed hash disagrees with expected, returning ErrHashMismatch.
// Used for client-supplied content integrity checks (e.g. a
// Content-MD5-like header carrying a hash the client already knows).
func (h *Hasher) StoreVerified(data []byte, expected Hash) (Hash, error) {
	hash := Sum(data)
	if hash != expected {
		return "", ErrHashMismatch
	}

	return h.Store(data)
}

// Get fetches the bytes for hash from the blob store.
func (h *Hasher) Get(hash Hash) ([]byte, error) {
	data, err := h.blobs.Get(string(hash))
	if err != nil {
		return nil, errors.Wrapf(err, "fetching blob %s", hash)
	}

	return data, nil
}

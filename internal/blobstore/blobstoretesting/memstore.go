// Package blobstoretesting provides an in-memory blobstore.Store for
// tests, mirroring kopia's internal/blobtesting fakes.
package blobstoretesting

import (
	"sync"

	"github.com/alari/marble-next/internal/blobstore"
)

// InMemory is a blobstore.Store backed by a map, safe for concurrent use.
type InMemory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewInMemory returns an empty InMemory store.
func NewInMemory() *InMemory {
	return &InMemory{blobs: map[string][]byte{}}
}

// Put implements blobstore.Store.
func (m *InMemory) Put(hash string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[hash]; ok {
		return nil
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[hash] = cp

	return nil
}

// Get implements blobstore.Store.
func (m *InMemory) Get(hash string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[hash]
	if !ok {
		return nil, blobstore.ErrNotFound
	}

	return data, nil
}

// Exists implements blobstore.Store.
func (m *InMemory) Exists(hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blobs[hash]

	return ok, nil
}

// Delete implements blobstore.Store.
func (m *InMemory) Delete(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, hash)

	return nil
}

// Count returns the number of distinct blobs currently stored.
func (m *InMemory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.blobs)
}

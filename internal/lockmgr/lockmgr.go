// Package lockmgr implements the advisory exclusive-write lock table
// keyed by (tenant, path), per spec §4.5. It is a single in-process
// map guarded by a reader/writer lock; per §9 this is authoritative
// for a single-node deployment, and the interface is the natural
// injection point for a shared (database-table) backend later.
package lockmgr

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LockInfo describes a live lock.
type LockInfo struct {
	Token     string
	Owner     string // tenant that holds the lock
	ExpiresAt time.Time
}

func (l LockInfo) live(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

type key struct {
	tenant string
	path   string
}

// Manager is the lock table. The zero value is not usable; use New.
type Manager struct {
	mu    sync.RWMutex
	locks map[key]LockInfo
	now   func() time.Time
}

// New returns an empty Manager.
func New() *Manager {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty Manager that reads the current time
// from now, for deterministic expiry tests.
func NewWithClock(now func() time.Time) *Manager {
	return &Manager{
		locks: map[key]LockInfo{},
		now:   now,
	}
}

// NewToken mints a server-generated lock token in the
// urn:uuid:<v4-uuid> form required by LOCK responses.
func NewToken() string {
	return "urn:uuid:" + uuid.NewString()
}

// ErrLockedByOther is returned by Lock when a live lock with a
// different token already covers (tenant, path).
type ErrLockedByOther struct {
	Existing LockInfo
}

func (e *ErrLockedByOther) Error() string {
	return "lockmgr: locked by another token"
}

// ErrInvalidToken is returned by Unlock when a live lock exists whose
// token does not match the one presented.
var ErrInvalidToken = invalidTokenError{}

type invalidTokenError struct{}

func (invalidTokenError) Error() string { return "lockmgr: invalid token" }

// Lock acquires or refreshes a lock on (tenant, path) under token,
// live for timeout from now. It first sweeps any expired lock at that
// key. If a live lock with a different token exists, it returns
// *ErrLockedByOther.
func (m *Manager) Lock(tenant, path string, timeout time.Duration, token string) error {
	now := m.now()
	k := key{tenant, path}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.locks[k]; ok && existing.live(now) && existing.Token != token {
		return &ErrLockedByOther{Existing: existing}
	}

	m.locks[k] = LockInfo{
		Token:     token,
		Owner:     tenant,
		ExpiresAt: now.Add(timeout),
	}

	return nil
}

// Unlock releases the lock on (tenant, path) if token matches. If no
// lock exists, Unlock is a no-op and returns nil (idempotent). If a
// live lock exists under a different token, it returns ErrInvalidToken.
func (m *Manager) Unlock(tenant, path, token string) error {
	now := m.now()
	k := key{tenant, path}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[k]
	if !ok || !existing.live(now) {
		delete(m.locks, k)
		return nil
	}

	if existing.Token != token {
		return ErrInvalidToken
	}

	delete(m.locks, k)

	return nil
}

// IsLocked sweeps expired locks at (tenant, path) and returns the live
// lock, if any.
func (m *Manager) IsLocked(tenant, path string) (LockInfo, bool) {
	now := m.now()
	k := key{tenant, path}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.locks[k]
	if !ok {
		return LockInfo{}, false
	}

	if !existing.live(now) {
		delete(m.locks, k)
		return LockInfo{}, false
	}

	return existing, true
}

// SweepExpired removes every expired lock. Lazy sweeping on each
// operation is sufficient for correctness; callers MAY also run this
// periodically (cmd/marble-webdav does, on a configurable interval).
func (m *Manager) SweepExpired() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range m.locks {
		if !v.live(now) {
			delete(m.locks, k)
		}
	}
}

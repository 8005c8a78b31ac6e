package lockmgr_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alari/marble-next/internal/lockmgr"
)

func TestLockExclusivity(t *testing.T) {
	m := lockmgr.New()

	tokA := lockmgr.NewToken()
	tokB := lockmgr.NewToken()

	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, tokA))

	var target *lockmgr.ErrLockedByOther

	err := m.Lock("t1", "/a.txt", time.Minute, tokB)
	require.ErrorAs(t, err, &target)

	// Refresh with the same token succeeds.
	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, tokA))
}

func TestLockExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	m := lockmgr.NewWithClock(func() time.Time { return clock() })

	require.NoError(t, m.Lock("t1", "/a.txt", time.Second, lockmgr.NewToken()))

	now = now.Add(2 * time.Second)

	// After expiry, any token succeeds.
	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, lockmgr.NewToken()))
}

func TestUnlockIdempotent(t *testing.T) {
	m := lockmgr.New()
	tok := lockmgr.NewToken()

	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, tok))
	require.NoError(t, m.Unlock("t1", "/a.txt", tok))
	require.NoError(t, m.Unlock("t1", "/a.txt", tok))
}

func TestUnlockInvalidToken(t *testing.T) {
	m := lockmgr.New()
	tok := lockmgr.NewToken()

	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, tok))
	require.ErrorIs(t, m.Unlock("t1", "/a.txt", "urn:uuid:other"), lockmgr.ErrInvalidToken)
}

func TestIsLocked(t *testing.T) {
	m := lockmgr.New()

	_, locked := m.IsLocked("t1", "/a.txt")
	require.False(t, locked)

	tok := lockmgr.NewToken()
	require.NoError(t, m.Lock("t1", "/a.txt", time.Minute, tok))

	info, locked := m.IsLocked("t1", "/a.txt")
	require.True(t, locked)
	require.Equal(t, tok, info.Token)
}

package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tiktok_monitor.db")

	lock, err := AcquireLock(dbPath)
	require.NoError(t, err)

	_, err = AcquireLock(dbPath)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, lock.Unlock())

	again, err := AcquireLock(dbPath)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestLockOwner(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tiktok_monitor.db")

	_, running, err := LockOwner(dbPath)
	require.NoError(t, err)
	assert.False(t, running, "no lock file yet")

	lock, err := AcquireLock(dbPath)
	require.NoError(t, err)

	pid, running, err := LockOwner(dbPath)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, lock.Unlock())

	_, running, err = LockOwner(dbPath)
	require.NoError(t, err)
	assert.False(t, running, "a released lock has no owner")
}

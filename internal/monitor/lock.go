package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process monitors the same store
var ErrAlreadyRunning = errors.New("another monitor is already running on this database")

func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireLock takes an exclusive lock next to the database file and records
// the process ID in it. The lock is released with Unlock or when the process
// exits.
func AcquireLock(dbPath string) (*flock.Flock, error) {
	lock := flock.New(lockPath(dbPath))

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	if err := os.WriteFile(lock.Path(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to write pid to %s: %w", lock.Path(), err)
	}
	return lock, nil
}

// LockOwner reports the process ID holding the lock of dbPath. running is
// false when no monitor holds it.
func LockOwner(dbPath string) (pid int, running bool, err error) {
	path := lockPath(dbPath)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}

	probe := flock.New(path)
	locked, err := probe.TryLock()
	if err != nil {
		return 0, false, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if locked {
		return 0, false, probe.Unlock()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, true, fmt.Errorf("failed to read %s: %w", path, err)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, true, fmt.Errorf("no pid recorded in %s", path)
	}
	return pid, true, nil
}

// Package devicelock provides exclusive, cross-process access to a single
// fastboot device for the duration of a flash run, keyed by USB serial
// number rather than a disk number.
package devicelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DeviceLock guards one device serial against concurrent fbflash
// instances. Locks for different serials use separate lock files and do
// not contend with each other.
type DeviceLock struct {
	serial   string
	lock     *flock.Flock
	lockPath string
}

// New creates a lock for the device identified by serial.
func New(serial string) (*DeviceLock, error) {
	lockDir := filepath.Join(os.TempDir(), "fbflash-locks")
	if err := os.MkdirAll(lockDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := filepath.Join(lockDir, fmt.Sprintf("device-%s.lock", serial))
	return &DeviceLock{
		serial:   serial,
		lock:     flock.New(lockPath),
		lockPath: lockPath,
	}, nil
}

// TryLock attempts to acquire the lock within timeout.
func (d *DeviceLock) TryLock(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := d.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if err == context.DeadlineExceeded {
			return fmt.Errorf("device %s is being used by another fbflash instance", d.serial)
		}
		return fmt.Errorf("lock error: %w", err)
	}
	if !locked {
		return fmt.Errorf("device %s is being used by another fbflash instance", d.serial)
	}
	return nil
}

// Unlock releases the lock.
func (d *DeviceLock) Unlock() error {
	if d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

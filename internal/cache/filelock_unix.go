//go:build !windows

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// FileLock is an exclusive flock on a lock file.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock takes an exclusive lock on lockPath, retrying up to maxRetries
// times. The holder's pid is written into the file. Failure wraps ErrLocked
// and names the holder.
func AcquireLock(ctx context.Context, lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}
		if err = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
			_ = lockFile.Truncate(0)
			_, _ = lockFile.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
			return &FileLock{lockFile: lockFile, path: lockPath}, nil
		}
		lockFile.Close()
		lastErr = err

		if i < maxRetries {
			if err := sleepRetry(ctx); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w (pid %s): %w", ErrLocked, holder(lockPath), lastErr)
}

// Release unlocks and closes the lock file. The file itself stays so the
// next holder can flock it.
func (fl *FileLock) Release() error {
	if fl.lockFile == nil {
		return nil
	}
	defer func() { fl.lockFile = nil }()

	_ = fl.lockFile.Truncate(0)
	if err := syscall.Flock(int(fl.lockFile.Fd()), syscall.LOCK_UN); err != nil {
		fl.lockFile.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if err := fl.lockFile.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	return nil
}

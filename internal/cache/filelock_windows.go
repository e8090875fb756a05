//go:build windows

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FileLock is a lock file created exclusively; its existence is the lock.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock creates lockPath exclusively, retrying up to maxRetries times.
// The holder's pid is written into the file. Failure wraps ErrLocked and
// names the holder.
func AcquireLock(ctx context.Context, lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			return &FileLock{lockFile: f, path: lockPath}, nil
		}
		lastErr = err
		if i < maxRetries {
			if err := sleepRetry(ctx); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w (pid %s): %w", ErrLocked, holder(lockPath), lastErr)
}

// Release closes and removes the lock file.
func (fl *FileLock) Release() error {
	if fl.lockFile == nil {
		return nil
	}
	fl.lockFile.Close()
	fl.lockFile = nil
	if err := os.Remove(fl.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

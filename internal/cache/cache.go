// Package cache holds small pieces of state kept between runs under the
// user's cache directory, guarded by file locks.
package cache

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrStampTampered is returned when a stamp file's checksum does not match.
	ErrStampTampered = errors.New("stamp file has been tampered with")
	// ErrLocked is returned when another process holds a lock.
	ErrLocked = errors.New("lock is held by another process")
)

const lockRetryDelay = 100 * time.Millisecond

// GetCacheDir returns the cache directory path, creating it if needed.
// RIFT_CACHE_DIR overrides the default ~/.cache/rift.
func GetCacheDir() (string, error) {
	cacheDir := os.Getenv("RIFT_CACHE_DIR")
	if cacheDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(homeDir, ".cache", "rift")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return cacheDir, nil
}

// Path returns name inside the cache directory.
func Path(name string) (string, error) {
	dir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func checksum(s string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(s)))
	return hex.EncodeToString(sum[:])
}

// ReadStamp reads a stamp written by WriteStamp. ok is false when the file
// does not exist. A stamp whose checksum line does not match its timestamp,
// or that cannot be parsed, yields ErrStampTampered.
func ReadStamp(path string) (t time.Time, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to read stamp: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read stamp: %w", err)
	}
	if len(lines) < 2 || checksum(lines[0]) != strings.TrimSpace(lines[1]) {
		return time.Time{}, false, ErrStampTampered
	}
	t, err = time.Parse(time.RFC3339Nano, strings.TrimSpace(lines[0]))
	if err != nil {
		return time.Time{}, false, ErrStampTampered
	}
	return t, true, nil
}

// WriteStamp atomically records t and its checksum at path.
func WriteStamp(path string, t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create stamp directory: %w", err)
	}
	ts := t.Format(time.RFC3339Nano)
	data := ts + "\n" + checksum(ts) + "\n"

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write temp stamp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename stamp: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the named lock in the cache directory.
// With wait=false a held lock fails immediately with ErrLocked.
func WithLock(ctx context.Context, name string, wait bool, fn func() error) error {
	lockPath, err := Path("." + name + ".lock")
	if err != nil {
		return err
	}
	retries := 50
	if !wait {
		retries = 0
	}
	lock, err := AcquireLock(ctx, lockPath, retries)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release lock: %v\n", releaseErr)
		}
	}()

	return fn()
}

// sleepRetry waits one retry interval or until ctx is done.
func sleepRetry(ctx context.Context) error {
	t := time.NewTimer(lockRetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// holder returns the pid recorded in a lock file, or "unknown".
func holder(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		return "unknown"
	}
	return strings.TrimSpace(string(data))
}

package helpers

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

var sanRegex = regexp.MustCompile(`[\/:*?"><|]`)

// Sanitise cleans a filename by replacing invalid characters.
func Sanitise(filename string) string {
	san := sanRegex.ReplaceAllString(filename, "_")
	return strings.TrimRight(san, "\t .")
}

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file (not directory) exists at the given path.
func FileExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return !f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidatePath checks that a path does not contain dangerous characters.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains invalid characters")
	}
	return nil
}

// SafeJoin joins rel under root and rejects results that escape root.
func SafeJoin(root, rel string) (string, error) {
	if err := ValidatePath(rel); err != nil {
		return "", err
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", rel, root)
	}
	return p, nil
}

// CalculateLocalSize returns the total size of the regular files under
// localPath. Unreadable entries are skipped.
func CalculateLocalSize(localPath string) int64 {
	var total int64
	_ = filepath.WalkDir(localPath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// RemoveEmptyDirs deletes every directory below root that is empty or holds
// only empty directories. root itself is kept. Top-level subtrees are pruned
// concurrently.
func RemoveEmptyDirs(ctx context.Context, root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		g.Go(func() error {
			_, err := pruneDir(ctx, dir)
			return err
		})
	}
	return g.Wait()
}

// pruneDir removes empty descendants of dir, then dir itself if it ended up
// empty. Reports whether dir was removed.
func pruneDir(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	remaining := len(entries)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		removed, err := pruneDir(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return false, err
		}
		if removed {
			remaining--
		}
	}
	if remaining > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}

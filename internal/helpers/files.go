package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// ErrIDList wraps failures reading an id list file.
var ErrIDList = errors.New("read id list")

// binaryDir returns the directory of the running executable. Under "go run"
// the executable lives in a go-build temp dir, so the source dir is used instead.
func binaryDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	if strings.HasPrefix(exe, filepath.Join(os.TempDir(), "go-build")) {
		if _, src, _, ok := runtime.Caller(0); ok {
			return filepath.Dir(src), nil
		}
	}
	return filepath.Dir(exe), nil
}

// ResolveToolPath prefers a relative tool name placed next to the binary and
// otherwise returns name unchanged for PATH lookup.
func ResolveToolPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	dir, err := binaryDir()
	if err != nil {
		return name
	}
	for _, candidate := range []string{name, name + ".exe"} {
		p := filepath.Join(dir, candidate)
		if ok, _ := FileExists(p); ok {
			return p
		}
	}
	return name
}

// readIDList returns the trimmed lines of path, skipping blanks and # comments.
func readIDList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrIDList, path, err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrIDList, path, err)
	}
	return ids, nil
}

func containsFold(list []string, v string) bool {
	return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, v) })
}

// ProcessIDs expands .txt arguments into the event ids they list and drops
// case-insensitive duplicates, keeping first-seen order.
func ProcessIDs(args []string) ([]string, error) {
	var ids []string
	add := func(id string) {
		if id = strings.TrimSpace(id); id != "" && !containsFold(ids, id) {
			ids = append(ids, id)
		}
	}
	read := map[string]bool{}
	for _, a := range args {
		if !strings.HasSuffix(a, ".txt") {
			add(a)
			continue
		}
		if read[a] {
			continue
		}
		read[a] = true
		lines, err := readIDList(a)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			add(line)
		}
	}
	return ids, nil
}

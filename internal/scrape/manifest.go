package scrape

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmagar/rift-cli/internal/model"
)

// manifest appends saved relative paths to files.txt in a scrape directory.
// Single writer only.
type manifest struct {
	path string
}

func newManifest(dir string) manifest {
	return manifest{path: filepath.Join(dir, model.ScrapeManifestName)}
}

func (m manifest) Append(rel string) error {
	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, filepath.ToSlash(rel))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

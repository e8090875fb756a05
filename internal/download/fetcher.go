// Package download saves remote assets to disk. Every fetch is idempotent: a
// file already present at the destination is never downloaded again.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
)

// ErrNoFileName is returned for URLs whose path has no last segment.
var ErrNoFileName = errors.New("url has no file name")

// Client is the slice of the HTTP gateway the fetcher needs.
type Client interface {
	Download(ctx context.Context, rawURL, dest string) (int64, error)
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// Result describes one completed fetch.
type Result struct {
	Path    string
	Bytes   int64
	Skipped bool
}

// Fetcher downloads assets of one kind (bundle, asset, audio, ...).
type Fetcher struct {
	client  Client
	log     logger.Logger
	metrics *metrics.Recorder
	kind    string
}

// NewFetcher builds a Fetcher. log and rec may be nil.
func NewFetcher(client Client, log logger.Logger, rec *metrics.Recorder) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{client: client, log: log.Named("download"), metrics: rec, kind: "asset"}
}

// WithKind returns a copy whose logs and metrics are labelled kind.
func (f *Fetcher) WithKind(kind string) *Fetcher {
	c := *f
	c.kind = kind
	return &c
}

// Fetch saves rawURL into dir under the URL's own file name.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (Result, error) {
	name := helpers.Sanitise(api.FileName(rawURL))
	if name == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return f.FetchTo(ctx, rawURL, filepath.Join(dir, name))
}

// FetchTo saves rawURL at dest unless dest already exists.
func (f *Fetcher) FetchTo(ctx context.Context, rawURL, dest string) (Result, error) {
	exists, err := helpers.FileExists(dest)
	if err != nil {
		return Result{}, err
	}
	if exists {
		f.log.Debug(ctx, "already present, skipping", logger.String("kind", f.kind), logger.String("path", dest))
		f.metrics.Download(f.kind, metrics.ResultSkipped, 0)
		return Result{Path: dest, Skipped: true}, nil
	}
	return f.download(ctx, rawURL, dest)
}

// Refresh saves rawURL at dir/<file name>, replacing any existing copy.
func (f *Fetcher) Refresh(ctx context.Context, rawURL, dir string) (Result, error) {
	name := helpers.Sanitise(api.FileName(rawURL))
	if name == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return f.download(ctx, rawURL, filepath.Join(dir, name))
}

func (f *Fetcher) download(ctx context.Context, rawURL, dest string) (Result, error) {
	if err := helpers.ValidatePath(dest); err != nil {
		return Result{}, err
	}
	n, err := f.client.Download(ctx, rawURL, dest)
	if err != nil {
		name := filepath.Base(dest)
		switch {
		case api.IsNotFound(err):
			f.log.Warn(ctx, "not found", logger.String("kind", f.kind), logger.String("file", name), logger.String("url", rawURL))
			f.metrics.Download(f.kind, metrics.ResultMissing, 0)
		case errors.Is(err, context.Canceled):
		default:
			f.log.Error(ctx, "download failed", logger.String("kind", f.kind), logger.String("file", name), logger.Error(err))
			f.metrics.Download(f.kind, metrics.ResultFailed, 0)
		}
		return Result{}, fmt.Errorf("download %s: %w", rawURL, err)
	}
	f.log.Info(ctx, "downloaded",
		logger.String("kind", f.kind),
		logger.String("file", filepath.Base(dest)),
		logger.String("size", humanize.Bytes(uint64(n))))
	f.metrics.Download(f.kind, metrics.ResultDownloaded, n)
	return Result{Path: dest, Bytes: n}, nil
}

// WriteFile stores data at dest unless it already exists. Used for content
// produced locally rather than downloaded.
func (f *Fetcher) WriteFile(ctx context.Context, dest string, data []byte) (Result, error) {
	exists, err := helpers.FileExists(dest)
	if err != nil {
		return Result{}, err
	}
	if exists {
		f.metrics.Download(f.kind, metrics.ResultSkipped, 0)
		return Result{Path: dest, Skipped: true}, nil
	}
	if err := helpers.MakeDirs(filepath.Dir(dest)); err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Result{}, err
	}
	f.log.Debug(ctx, "saved", logger.String("kind", f.kind), logger.String("path", dest))
	f.metrics.Download(f.kind, metrics.ResultDownloaded, int64(len(data)))
	return Result{Path: dest, Bytes: int64(len(data))}, nil
}

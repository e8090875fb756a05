package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/tools"
	"github.com/tidwall/gjson"
)

var (
	// ErrMissingInternalIDs is returned when a converted catalog has no m_InternalIds array.
	ErrMissingInternalIDs = errors.New("catalog has no m_InternalIds array")
	// ErrInvalidCatalog is returned when the converter output is not JSON.
	ErrInvalidCatalog = errors.New("converted catalog is not valid JSON")
)

// Downloader fetches a single URL to a local path.
type Downloader interface {
	Download(ctx context.Context, rawURL, dest string) (int64, error)
}

// BundleResolver downloads and converts an event's catalog, then lists its bundles.
type BundleResolver struct {
	client    Downloader
	converter tools.CatalogConverter
	log       logger.Logger
	metrics   *metrics.Recorder

	// TempDir is the parent of the per-call scratch directory. Empty means os.TempDir().
	TempDir string
}

// NewBundleResolver builds a BundleResolver. log and rec may be nil.
func NewBundleResolver(client Downloader, converter tools.CatalogConverter, log logger.Logger, rec *metrics.Recorder) *BundleResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &BundleResolver{client: client, converter: converter, log: log.Named("catalog"), metrics: rec}
}

// Resolve returns the bundle URLs for info. Every failure is logged and
// yields an empty list. The scratch directory is always removed.
func (r *BundleResolver) Resolve(ctx context.Context, info *model.CatalogInfo, filter string) []string {
	if info == nil {
		r.log.Info(ctx, "catalog not available")
		return nil
	}
	defer r.metrics.ObserveStage("catalog", time.Now())

	urls, err := r.resolve(ctx, info, filter)
	if err != nil {
		r.log.Error(ctx, "catalog resolution failed",
			logger.String("catalog", info.CatalogURL),
			logger.Error(err))
		return nil
	}
	r.log.Info(ctx, "catalog bundles found",
		logger.String("catalog", info.CatalogURL),
		logger.Int("bundles", len(urls)))
	return urls
}

func (r *BundleResolver) resolve(ctx context.Context, info *model.CatalogInfo, filter string) ([]string, error) {
	scratch, err := os.MkdirTemp(r.TempDir, "rift-catalog-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			r.log.Warn(ctx, "could not remove scratch dir", logger.String("dir", scratch), logger.Error(err))
		}
	}()
	work := filepath.Join(scratch, uuid.NewString())
	if err := os.MkdirAll(work, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	binPath := filepath.Join(work, model.CatalogFileName)
	jsonPath := filepath.Join(work, "catalog.json")
	if _, err := r.client.Download(ctx, info.CatalogURL, binPath); err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}
	r.log.Debug(ctx, "catalog downloaded", logger.String("path", binPath))

	if err := r.converter.Convert(ctx, binPath, jsonPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrToolFailed, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidCatalog
	}
	doc := gjson.ParseBytes(data)
	if !doc.Get("m_InternalIds").IsArray() {
		return nil, ErrMissingInternalIDs
	}
	r.log.Debug(ctx, "parsing catalog",
		logger.String("base", info.BaseURL),
		logger.String("filter", filter))
	return ParseBundleURLs(doc, info.BaseURL, filter), nil
}

// Package process downloads everything for one resolved event: catalog
// bundles and their audio, or the embed page's mirrored assets, plus the
// event's background, icon and additional assets.
package process

import (
	"context"

	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/scrape"
	"github.com/jmagar/rift-cli/internal/tools"
)

// BundleLister lists the bundle URLs of a catalog. Failures yield no bundles.
type BundleLister interface {
	Resolve(ctx context.Context, info *model.CatalogInfo, filter string) []string
}

// EmbedScraper mirrors an embed page's dist assets into dir.
type EmbedScraper interface {
	Scrape(ctx context.Context, embedURL, dir string, sess *scrape.Session) error
}

// AudioDownloader fetches the clips referenced by extracted prefabs and
// returns the URLs now present on disk.
type AudioDownloader interface {
	DownloadAll(ctx context.Context, extractedDir, catalogBase string) ([]string, error)
}

// Deps holds the collaborators a Processor drives. Every field is required.
type Deps struct {
	Bundles   BundleLister
	Extractor tools.BundleExtractor
	Audio     AudioDownloader
	Scraper   EmbedScraper
	Fetcher   *download.Fetcher
}

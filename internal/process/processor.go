package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/catalog"
	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/scrape"
)

// Processor runs the download pipeline for one event at a time.
type Processor struct {
	root    string
	locale  string
	deps    Deps
	session *scrape.Session
	log     logger.Logger
	metrics *metrics.Recorder
}

// New builds a Processor writing under root. locale replaces {locale} in
// main link URLs.
func New(root, locale string, deps Deps, log logger.Logger, rec *metrics.Recorder) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	if locale == "" {
		locale = model.DefaultLocale
	}
	return &Processor{
		root:    root,
		locale:  locale,
		deps:    deps,
		session: scrape.NewSession(),
		log:     log.Named("process"),
		metrics: rec,
	}
}

// EventDir returns the directory an event's assets are written to.
func (p *Processor) EventDir(id string) (string, error) {
	return helpers.SafeJoin(p.root, helpers.Sanitise(id))
}

// ProcessEvent downloads everything for rec using link as the main link. A
// zero link means none was chosen. When the catalog yields bundles they are
// downloaded, extracted and mined for audio; otherwise the main link's embed
// page is scraped. Background, icon and additional assets are always fetched.
// The returned error is the scrape failure, if any; per-asset failures are
// only logged.
func (p *Processor) ProcessEvent(ctx context.Context, rec *model.EventRecord, link model.MainLink) error {
	defer p.metrics.ObserveStage("event", time.Now())

	eventDir, err := p.EventDir(rec.NavigationItemID)
	if err != nil {
		return err
	}
	p.logLinks(ctx, rec)

	filter := catalog.FilterKeywords(link.MetagameID, catalog.LinkKeyword(link.URL))
	p.log.Debug(ctx, "filter keywords", logger.String("filter", filter))

	mainURL := link.URL
	if strings.Contains(mainURL, model.LocalePlaceholder) {
		mainURL = strings.ReplaceAll(mainURL, model.LocalePlaceholder, p.locale)
		p.log.Warn(ctx, "substituted locale in main url", logger.String("url", mainURL))
	}

	set := &model.ResolvedAssetSet{}
	var scrapeErr error
	if bundles := p.deps.Bundles.Resolve(ctx, rec.Catalog, filter); len(bundles) > 0 {
		p.catalogBranch(ctx, rec, eventDir, bundles, set)
	} else if mainURL != "" {
		p.log.Info(ctx, "no bundles, scraping embed page", logger.String("url", mainURL))
		dir := filepath.Join(eventDir, model.EmbedScrapeDir)
		if err := p.deps.Scraper.Scrape(ctx, mainURL, dir, p.session); err != nil {
			p.log.Error(ctx, "embed scrape failed", logger.String("event", rec.NavigationItemID), logger.Error(err))
			scrapeErr = fmt.Errorf("scrape %s: %w", rec.NavigationItemID, err)
		}
	} else {
		p.log.Warn(ctx, "no catalog and no main url, only plain assets will be fetched",
			logger.String("event", rec.NavigationItemID))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	p.plainAssets(ctx, rec, eventDir, set)
	if err := ctx.Err(); err != nil {
		return err
	}
	p.log.Info(ctx, "event assets selected",
		logger.String("id", rec.NavigationItemID),
		logger.Int("bundles", len(set.Bundles)),
		logger.Int("assets", len(set.Assets)),
		logger.Int("audio", len(set.Audio)))
	return scrapeErr
}

func (p *Processor) logLinks(ctx context.Context, rec *model.EventRecord) {
	p.log.Info(ctx, "processing event",
		logger.String("id", rec.NavigationItemID),
		logger.String("title", rec.Title),
		logger.String("kind", rec.Kind()))
	for i, l := range rec.MainLinks {
		p.log.Debug(ctx, "main link",
			logger.Int("n", i+1),
			logger.String("url", l.URL),
			logger.String("metagame", l.MetagameID),
			logger.String("title", l.Title))
	}
}

func (p *Processor) catalogBranch(ctx context.Context, rec *model.EventRecord, eventDir string, bundles []string, set *model.ResolvedAssetSet) {
	bundlesDir := filepath.Join(eventDir, model.BundlesDir)
	extractedDir := filepath.Join(eventDir, model.ExtractedAssetsDir)
	bundleFetch := p.deps.Fetcher.WithKind("bundle")

	p.log.Info(ctx, "downloading bundles", logger.Int("count", len(bundles)))
	for _, u := range bundles {
		if ctx.Err() != nil {
			return
		}
		if !set.AddBundle(u) {
			continue
		}
		_, _ = bundleFetch.Fetch(ctx, u, bundlesDir)
	}

	if _, err := os.Stat(bundlesDir); err != nil {
		p.log.Warn(ctx, "no bundles on disk, skipping extraction", logger.String("dir", bundlesDir))
	} else if err := p.deps.Extractor.Extract(ctx, bundlesDir, extractedDir); err != nil {
		p.log.Error(ctx, "bundle extraction failed", logger.String("event", rec.NavigationItemID), logger.Error(err))
	} else {
		p.log.Info(ctx, "bundle extraction complete", logger.String("event", rec.NavigationItemID))
	}

	if ctx.Err() != nil {
		return
	}
	var base string
	if rec.Catalog != nil {
		base = rec.Catalog.BaseURL
	}
	clips, err := p.deps.Audio.DownloadAll(ctx, extractedDir, base)
	for _, u := range clips {
		set.AddAudio(u)
	}
	if err != nil {
		p.log.Warn(ctx, "audio download interrupted", logger.Error(err))
	}
}

func (p *Processor) plainAssets(ctx context.Context, rec *model.EventRecord, eventDir string, set *model.ResolvedAssetSet) {
	for _, u := range []string{rec.BackgroundURL, rec.IconURL} {
		if set.AddAsset(u) {
			_, _ = p.deps.Fetcher.Fetch(ctx, u, eventDir)
		}
	}
	if len(rec.AdditionalAssetURLs) == 0 {
		return
	}
	dir := filepath.Join(eventDir, model.AdditionalDir)
	p.log.Info(ctx, "downloading additional assets", logger.Int("count", len(rec.AdditionalAssetURLs)))
	for _, u := range rec.AdditionalAssetURLs {
		if ctx.Err() != nil {
			return
		}
		if !Downloadable(u) {
			p.log.Warn(ctx, "skipping non-downloadable additional asset", logger.String("url", u))
			continue
		}
		if !set.AddAsset(u) {
			continue
		}
		if download.IsHLS(u) {
			if _, err := p.deps.Fetcher.FetchHLS(ctx, u, dir); err != nil && !api.IsNotFound(err) {
				p.log.Warn(ctx, "stream mirror failed", logger.String("url", u), logger.Error(err))
			}
			continue
		}
		_, _ = p.deps.Fetcher.Fetch(ctx, u, dir)
	}
}

// Downloadable reports whether an additional asset URL is worth fetching:
// absolute http(s) and either carrying a dot or served by the CMS asset host.
func Downloadable(u string) bool {
	if !api.IsAbsoluteHTTP(u) {
		return false
	}
	return strings.Contains(u, ".") || strings.HasPrefix(strings.ToLower(u), model.CMSAssetsHost)
}

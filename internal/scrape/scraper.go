// Package scrape mirrors the media referenced by an embed page's dist
// bundles when an event has no Unity catalog.
package scrape

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
)

// PageFetcher loads the embed page HTML.
type PageFetcher interface {
	GetText(ctx context.Context, rawURL string) (string, error)
}

// Scraper downloads dist files and the assets they reference.
type Scraper struct {
	pages   PageFetcher
	fetch   *download.Fetcher
	rules   MainFileRules
	log     logger.Logger
	metrics *metrics.Recorder
}

// NewScraper builds a Scraper. log and rec may be nil.
func NewScraper(pages PageFetcher, fetch *download.Fetcher, rules MainFileRules, log logger.Logger, rec *metrics.Recorder) *Scraper {
	if log == nil {
		log = logger.Nop()
	}
	return &Scraper{
		pages:   pages,
		fetch:   fetch.WithKind("scrape"),
		rules:   rules,
		log:     log.Named("scrape"),
		metrics: rec,
	}
}

// Scrape mirrors everything reachable from embedURL's dist files into dir.
// sess is cleared when the scrape starts and again when it ends. Dist files
// the rules do not allow are skipped; when none is allowed the scrape stops
// with ErrUnknownDistFile before anything is downloaded.
func (s *Scraper) Scrape(ctx context.Context, embedURL, dir string, sess *Session) error {
	sess.Reset()
	defer sess.Reset()
	defer s.metrics.ObserveStage("scrape", time.Now())

	html, err := s.pages.GetText(ctx, embedURL)
	if err != nil {
		return fmt.Errorf("fetch embed page %s: %w", embedURL, err)
	}
	dists := FindDistURLs(html)
	if len(dists) == 0 {
		s.log.Warn(ctx, "no dist files found", logger.String("url", embedURL))
		return nil
	}
	var known, unknown []string
	for _, d := range dists {
		if s.rules.Allows(api.FileName(d)) {
			known = append(known, d)
		} else {
			unknown = append(unknown, api.FileName(d))
		}
	}
	if len(known) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownDistFile, strings.Join(unknown, ", "))
	}
	for _, name := range unknown {
		s.log.Warn(ctx, "skipping unknown dist file", logger.String("url", embedURL), logger.String("file", name))
	}
	dists = known
	s.log.Info(ctx, "dist files found", logger.String("url", embedURL), logger.Int("count", len(dists)))

	if err := helpers.MakeDirs(dir); err != nil {
		return err
	}
	m := newManifest(dir)
	for _, distURL := range dists {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.fetch.Fetch(ctx, distURL, dir)
		if err != nil {
			continue
		}
		if !res.Skipped {
			s.record(ctx, m, filepath.Base(res.Path))
		}
		data, err := os.ReadFile(res.Path)
		if err != nil {
			s.log.Error(ctx, "read dist file", logger.String("path", res.Path), logger.Error(err))
			continue
		}
		switch strings.ToLower(path.Ext(res.Path)) {
		case ".css":
			s.cssAssets(ctx, string(data), distURL, dir, m, sess)
		case ".js":
			s.jsAssets(ctx, string(data), distURL, dir, m, sess)
		}
	}
	return nil
}

func (s *Scraper) cssAssets(ctx context.Context, text, distURL, dir string, m manifest, sess *Session) {
	assets := ExtractCSSAssetURLs(text)
	s.log.Info(ctx, "css asset urls found", logger.String("dist", api.FileName(distURL)), logger.Int("count", len(assets)))

	base := api.Dir(distURL)
	for _, seg := range []string{"_next/static/media", "_next/static/chunks", "_next/static/css"} {
		base = strings.Replace(base, seg, "", 1)
	}
	for _, assetURL := range assets {
		if ctx.Err() != nil {
			return
		}
		rel := cssRelativePath(assetURL, base)
		s.fetchAsset(ctx, assetURL, relativeDir(rel), dir, m, sess)
	}
}

func (s *Scraper) jsAssets(ctx context.Context, text, distURL, dir string, m manifest, sess *Session) {
	paths := ExtractJSAssetPaths(text)
	s.log.Info(ctx, "js asset paths found", logger.String("dist", api.FileName(distURL)), logger.Int("count", len(paths)))

	base := api.Dir(distURL)
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		s.fetchAsset(ctx, api.Join(base, p), relativeDir(p), dir, m, sess)
	}
	s.saveSVGs(ctx, ExtractInlineSVGs(text), dir, m)
}

func (s *Scraper) fetchAsset(ctx context.Context, assetURL, relDir, dir string, m manifest, sess *Session) {
	key := NormalizeAssetName(assetURL)
	if !sess.Claim(key) {
		s.log.Debug(ctx, "already fetched this session", logger.String("asset", key))
		return
	}
	destDir, err := helpers.SafeJoin(dir, relDir)
	if err != nil {
		s.log.Warn(ctx, "asset path rejected", logger.String("url", assetURL), logger.Error(err))
		return
	}
	res, err := s.fetch.Fetch(ctx, assetURL, destDir)
	if err != nil || res.Skipped {
		return
	}
	s.record(ctx, m, path.Join(relDir, filepath.Base(res.Path)))
}

func (s *Scraper) saveSVGs(ctx context.Context, svgs []string, dir string, m manifest) {
	saved := 0
	for _, svg := range svgs {
		sum := md5.Sum([]byte(strings.TrimSpace(svg)))
		name := hex.EncodeToString(sum[:]) + ".svg"
		res, err := s.fetch.WriteFile(ctx, filepath.Join(dir, "svg", name), []byte(svg))
		if err != nil {
			s.log.Error(ctx, "save svg", logger.String("file", name), logger.Error(err))
			continue
		}
		if !res.Skipped {
			saved++
			s.record(ctx, m, "svg/"+name)
		}
	}
	if len(svgs) > 0 {
		s.log.Info(ctx, "inline svgs saved", logger.Int("found", len(svgs)), logger.Int("saved", saved))
	}
}

func (s *Scraper) record(ctx context.Context, m manifest, rel string) {
	if err := m.Append(rel); err != nil {
		s.log.Warn(ctx, "could not update files.txt", logger.String("entry", rel), logger.Error(err))
	}
}

// cssRelativePath maps an absolute asset URL to its path under the mirror
// root, dropping the Next.js static prefixes.
func cssRelativePath(assetURL, base string) string {
	rel := assetURL
	if base != "" && strings.HasPrefix(assetURL, base) {
		rel = strings.TrimPrefix(assetURL, base)
	} else if u, err := url.Parse(assetURL); err == nil {
		rel = u.Path
	}
	rel = strings.ReplaceAll(rel, "_/lib-embed/", "lib-embed/")
	return strings.ReplaceAll(rel, "_next/static/", "")
}

// relativeDir returns the slash-separated directory of rel without leading
// or trailing slashes; "" for the mirror root.
func relativeDir(rel string) string {
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	d := path.Dir("/" + strings.TrimLeft(rel, "/"))
	d = strings.ReplaceAll(d+"/", "/_/lib-embed/", "/lib-embed/")
	return strings.Trim(d, "/")
}

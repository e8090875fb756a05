// Package manifest mirrors the media referenced by the Riot Client theme
// manifests. A run is allowed once per calendar month unless forced.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jmagar/rift-cli/internal/cache"
	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
)

var (
	// ErrAlreadyDownloaded is returned when the manifests were fetched this month.
	ErrAlreadyDownloaded = errors.New("manifests already downloaded this month")
	// ErrInProgress is returned when another process is downloading manifests.
	ErrInProgress = errors.New("manifest download already in progress")
)

// StampFileName is the cache file recording the last successful run.
const StampFileName = "last_manifest_download.txt"

const lockName = "manifests"

// DefaultManifestURLs are the theme manifests published per game.
var DefaultManifestURLs = []string{
	"https://lol.secure.dyn.riotcdn.net/channels/public/rccontent/tft/theme/manifest.json",
	"https://riot-client.secure.dyn.riotcdn.net/channels/public/rccontent/arcane/theme/manifest.json",
	"https://wildrift.secure.dyn.riotcdn.net/channels/public/rccontent/theme/manifest.json",
	"https://valorant.secure.dyn.riotcdn.net/channels/public/rccontent/theme/03/manifest.json",
	"https://bacon.secure.dyn.riotcdn.net/channels/public/rccontent/theme/manifest.json",
	"https://lol.secure.dyn.riotcdn.net/channels/public/rccontent/theme/manifest_default.json",
	"https://riot-client.secure.dyn.riotcdn.net/channels/public/rccontent/theme/manifest_live.json",
}

// JSONGetter fetches and parses a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string) (gjson.Result, error)
}

// Report summarises one run.
type Report struct {
	Manifests  int
	Failed     int
	Assets     int
	Downloaded int
	NextRun    time.Time
}

// AlreadyDownloadedError carries the date the guard lifts.
type AlreadyDownloadedError struct {
	Last time.Time
	Next time.Time
}

func (e *AlreadyDownloadedError) Error() string {
	return fmt.Sprintf("%s (last %s, next %s)", ErrAlreadyDownloaded,
		e.Last.Format(time.DateOnly), e.Next.Format(time.DateOnly))
}

func (e *AlreadyDownloadedError) Unwrap() error { return ErrAlreadyDownloaded }

// Service downloads manifest assets under <root>/RiotClientAssets.
type Service struct {
	json      JSONGetter
	fetch     *download.Fetcher
	root      string
	log       logger.Logger
	metrics   *metrics.Recorder
	urls      []string
	stampPath string
	now       func() time.Time
	force     bool
}

// Option configures a Service.
type Option func(*Service)

// WithURLs replaces the manifest list.
func WithURLs(urls []string) Option {
	return func(s *Service) { s.urls = urls }
}

// WithStampPath overrides the stamp location in the cache directory.
func WithStampPath(path string) Option {
	return func(s *Service) { s.stampPath = path }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithForce skips the monthly guard.
func WithForce(force bool) Option {
	return func(s *Service) { s.force = force }
}

// NewService builds a Service. log and rec may be nil.
func NewService(client JSONGetter, fetch *download.Fetcher, root string, log logger.Logger, rec *metrics.Recorder, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		json:    client,
		fetch:   fetch.WithKind("manifest"),
		root:    root,
		log:     log.Named("manifest"),
		metrics: rec,
		urls:    DefaultManifestURLs,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextRun returns the first day of the month after last.
func NextRun(last time.Time) time.Time {
	return time.Date(last.Year(), last.Month()+1, 1, 0, 0, 0, 0, last.Location())
}

// DownloadAll fetches every manifest and its assets. Only one process may run
// it at a time; a concurrent call fails with ErrInProgress.
func (s *Service) DownloadAll(ctx context.Context) (Report, error) {
	var report Report
	err := cache.WithLock(ctx, lockName, false, func() error {
		var err error
		report, err = s.run(ctx)
		return err
	})
	if errors.Is(err, cache.ErrLocked) {
		return report, fmt.Errorf("%w: %w", ErrInProgress, err)
	}
	return report, err
}

func (s *Service) run(ctx context.Context) (Report, error) {
	defer s.metrics.ObserveStage("manifests", time.Now())

	stamp := s.stampPath
	if stamp == "" {
		p, err := cache.Path(StampFileName)
		if err != nil {
			return Report{}, err
		}
		stamp = p
	}

	now := s.now()
	if !s.force {
		if err := s.checkGuard(ctx, stamp, now); err != nil {
			return Report{}, err
		}
	}

	report := Report{Manifests: len(s.urls)}
	for _, u := range s.urls {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		assets, downloaded, err := s.processManifest(ctx, u)
		report.Assets += assets
		report.Downloaded += downloaded
		if err != nil {
			report.Failed++
			s.log.Warn(ctx, "manifest failed", logger.String("url", u), logger.Error(err))
		}
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	if report.Manifests > 0 && report.Failed == report.Manifests {
		return report, fmt.Errorf("all %d manifests failed", report.Failed)
	}

	if err := cache.WriteStamp(stamp, now); err != nil {
		return report, err
	}
	report.NextRun = NextRun(now)
	return report, nil
}

func (s *Service) checkGuard(ctx context.Context, stamp string, now time.Time) error {
	last, ok, err := cache.ReadStamp(stamp)
	if errors.Is(err, cache.ErrStampTampered) {
		s.log.Warn(ctx, "discarding tampered manifest stamp", logger.String("path", stamp))
		if rmErr := os.Remove(stamp); rmErr != nil && !os.IsNotExist(rmErr) {
			return rmErr
		}
		return nil
	}
	if err != nil {
		return err
	}
	if ok && last.Year() == now.Year() && last.Month() == now.Month() {
		return &AlreadyDownloadedError{Last: last, Next: NextRun(last)}
	}
	return nil
}

func (s *Service) processManifest(ctx context.Context, manifestURL string) (assets, downloaded int, err error) {
	doc, err := s.json.GetJSON(ctx, manifestURL)
	if err != nil {
		return 0, 0, err
	}
	urls, err := AssetURLs(manifestURL, doc)
	if err != nil {
		return 0, 0, err
	}
	dir := filepath.Join(s.root, model.ManifestAssetsDir, GameDir(manifestURL))
	s.log.Info(ctx, "processing manifest",
		logger.String("game", GameDir(manifestURL)),
		logger.Int("assets", len(urls)))

	for _, u := range urls {
		if ctx.Err() != nil {
			return len(urls), downloaded, ctx.Err()
		}
		if _, err := s.fetch.Refresh(ctx, u, dir); err == nil {
			downloaded++
		}
	}
	return len(urls), downloaded, nil
}

// AssetURLs lists the distinct absolute asset URLs referenced by a manifest,
// in document order. Values are appended to the manifest's directory URL; a
// leading "/" is dropped so they stay under it. Dot segments are collapsed.
func AssetURLs(manifestURL string, doc gjson.Result) ([]string, error) {
	base := manifestURL[:strings.LastIndex(manifestURL, "/")+1]
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse manifest url: %w", err)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, e := range Flatten(doc) {
		if !IsAsset(e.Value) {
			continue
		}
		u, err := url.Parse(base + strings.TrimLeft(strings.TrimSpace(e.Value), "/"))
		if err != nil {
			continue
		}
		u.Path, u.RawPath = path.Clean(u.Path), ""
		abs := u.String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out, nil
}

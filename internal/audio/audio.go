// Package audio finds the sound clips referenced by extracted motion-comic
// prefabs and downloads them from the event CDN.
package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/tidwall/gjson"
)

const (
	letteringPrefix = "motioncomiclettering"
	panelPrefix     = "motioncomicpanel"
)

// ComicsDir is where the extractor writes motion-comic prefab JSON.
var ComicsDir = filepath.Join("Assets", "Prefabs", "Comics")

// Resolver collects and downloads clip URLs.
type Resolver struct {
	fetch *download.Fetcher
	delay time.Duration
	log   logger.Logger
}

// NewResolver builds a Resolver that waits delay between downloads.
func NewResolver(fetch *download.Fetcher, delay time.Duration, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{fetch: fetch.WithKind("audio"), delay: delay, log: log.Named("audio")}
}

// CleanBaseURL strips a trailing slash, then /WebGL, then /aa.
func CleanBaseURL(base string) string {
	base = strings.TrimRight(base, "/")
	for _, suffix := range []string{"/WebGL", "/aa"} {
		if len(base) >= len(suffix) && strings.EqualFold(base[len(base)-len(suffix):], suffix) {
			base = base[:len(base)-len(suffix)]
		}
	}
	return base
}

// CollectClipURLs scans the top-level JSON files of the comics directory
// under extractedDir. Lettering files contribute localized voice clips and
// panel files contribute sound effects. The result is deduplicated with
// lettering clips first. Unreadable or invalid files are logged and skipped.
func (r *Resolver) CollectClipURLs(ctx context.Context, extractedDir, catalogBase string) []string {
	dir := filepath.Join(extractedDir, ComicsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Warn(ctx, "comics directory missing, no audio to collect", logger.String("dir", dir))
		return nil
	}
	base := CleanBaseURL(catalogBase)

	var lettering, panel []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, letteringPrefix) && !strings.HasPrefix(lower, panelPrefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			r.log.Error(ctx, "read prefab", logger.String("file", name), logger.Error(err))
			continue
		}
		if !gjson.ValidBytes(data) {
			r.log.Warn(ctx, "invalid prefab json, skipping", logger.String("file", name))
			continue
		}
		doc := gjson.ParseBytes(data)
		if strings.HasPrefix(lower, letteringPrefix) {
			if clip := doc.Get("letteringSfx.clipName"); clip.Type == gjson.String && clip.Str != "" {
				lettering = append(lettering, base+"/AudioLocales/en_US/"+clip.Str+".ogg")
			}
			continue
		}
		if clip := doc.Get("panelSfx.clipName"); clip.Type == gjson.String && clip.Str != "" {
			panel = append(panel, base+"/SoundFX/"+clip.Str+".ogg")
		}
		doc.Get("audioEvents").ForEach(func(_, ev gjson.Result) bool {
			if clip := ev.Get("clipName"); clip.Exists() && clip.String() != "" {
				panel = append(panel, base+"/SoundFX/"+clip.String()+".ogg")
			}
			return true
		})
	}
	if len(lettering) > 0 || len(panel) > 0 {
		r.log.Info(ctx, "audio clips found",
			logger.Int("lettering", len(lettering)),
			logger.Int("panel", len(panel)))
	}
	return dedupe(append(lettering, panel...))
}

// DownloadAll downloads every clip referenced under extractedDir into
// extractedDir/Audio and returns the URLs that were fetched or already
// present. Per-file failures are logged by the fetcher and do not stop the batch.
func (r *Resolver) DownloadAll(ctx context.Context, extractedDir, catalogBase string) ([]string, error) {
	urls := r.CollectClipURLs(ctx, extractedDir, catalogBase)
	if len(urls) == 0 {
		r.log.Info(ctx, "no audio clips referenced")
		return nil, nil
	}
	dest := filepath.Join(extractedDir, model.AudioDir)
	var ok []string
	for i, u := range urls {
		if i > 0 && r.delay > 0 {
			t := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ok, ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return ok, err
		}
		if _, err := r.fetch.Fetch(ctx, u, dest); err == nil {
			ok = append(ok, u)
		}
	}
	r.log.Info(ctx, "audio download complete", logger.Int("clips", len(urls)), logger.Int("ok", len(ok)))
	return ok, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

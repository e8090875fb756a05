package scrape

import (
	"path"
	"regexp"
	"strings"
)

// MediaExtensions are the asset types mined out of dist files.
var MediaExtensions = []string{"jpg", "png", "gif", "webm", "svg", "webp", "ogg", "json"}

var (
	extAlternation = strings.Join(MediaExtensions, "|")

	distURLPattern = regexp.MustCompile(`(?i)https://assetcdn\.rgpub\.io/public/live/bundle-offload/[^/"'\s]+/[^/"'\s]+/[\w.-]+\.(?:js|css)\b`)
	cssURLPattern  = regexp.MustCompile(`(?i)url\(\s*['"]?(https?://[^'"()\s]+\.(?:` + extAlternation + `))['"]?\s*\)`)
	jsPathPattern  = regexp.MustCompile(`(?i)\.?([\w./-]*\.(?:` + extAlternation + `))\b`)
	svgPattern     = regexp.MustCompile(`(?i)<svg\b[^>]*>[\s\S]*?</svg>`)
)

// svgNoise is a template fragment in minified JS that looks like an inline SVG.
const svgNoise = `<svg>"+r+"</svg>`

// FindDistURLs returns the distinct bundle-offload JS/CSS URLs in an embed
// page, in order of first appearance.
func FindDistURLs(html string) []string {
	return distinct(distURLPattern.FindAllString(html, -1))
}

// ExtractCSSAssetURLs returns the distinct absolute url(...) references in a
// stylesheet that point at a media file.
func ExtractCSSAssetURLs(text string) []string {
	var out []string
	for _, m := range cssURLPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return distinct(out)
}

// ExtractJSAssetPaths returns the distinct path-like strings in a script that
// end in a media extension. /vendor is rewritten to /commons and paths under
// /fe/ are dropped.
func ExtractJSAssetPaths(text string) []string {
	var out []string
	for _, m := range jsPathPattern.FindAllStringSubmatch(text, -1) {
		p := strings.ReplaceAll(m[1], "/vendor", "/commons")
		if strings.Contains(p, "/fe/") || strings.HasPrefix(path.Base(p), ".") {
			continue
		}
		out = append(out, p)
	}
	return distinct(out)
}

// ExtractInlineSVGs returns every <svg>...</svg> fragment except template noise.
func ExtractInlineSVGs(text string) []string {
	var out []string
	for _, s := range svgPattern.FindAllString(text, -1) {
		if strings.Contains(s, svgNoise) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func distinct(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package resolve

import (
	"context"
	"strings"

	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/model"
	"golang.org/x/net/html"
)

// fontMediaMarker splits a preloaded font href into the CDN root of the build.
const fontMediaMarker = "_next/static/media/"

// CatalogBaseResolver locates the addressables catalog of an embed page from
// its preloaded web font.
type CatalogBaseResolver struct {
	fetch Fetcher
	opts  Options
	log   logger.Logger
}

// NewCatalogBaseResolver builds a resolver. log may be nil.
func NewCatalogBaseResolver(fetch Fetcher, opts Options, log logger.Logger) *CatalogBaseResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogBaseResolver{fetch: fetch, opts: opts, log: log}
}

// Resolve returns the catalog.bin URL for embedURL, or false when the page has
// no usable font preload or the hint cannot be classified. Fetch errors are
// logged and reported as absent.
func (r *CatalogBaseResolver) Resolve(ctx context.Context, embedURL, hint string) (string, bool) {
	page, err := r.fetch.GetText(ctx, embedURL)
	if err != nil {
		r.log.Error(ctx, "fetch embed page failed", logger.String("url", embedURL), logger.Error(err))
		return "", false
	}
	href, ok := FindFontPreload(page)
	if !ok {
		return "", false
	}
	i := strings.Index(href, fontMediaMarker)
	if i < 0 {
		return "", false
	}
	suffix, ok := CatalogSuffix(hint, r.opts)
	if !ok {
		r.log.Debug(ctx, "catalog hint not classifiable", logger.String("hint", hint))
		return "", false
	}
	return href[:i] + suffix, true
}

// CatalogSuffix picks the catalog path for a link or event title.
func CatalogSuffix(hint string, opts Options) (string, bool) {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "play"), strings.Contains(h, "minigame"):
		return model.CatalogSuffixPlay, true
	case strings.Contains(h, "comic"):
		return model.CatalogSuffixComic, true
	case !opts.GuessUnknown:
		return "", false
	case opts.DefaultSuffix != "":
		return opts.DefaultSuffix, true
	default:
		return model.CatalogSuffixComic, true
	}
}

// FindFontPreload returns the href of the first <link rel="preload" as="font">
// whose href mentions woff2.
func FindFontPreload(page string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "link" || !hasAttr {
				continue
			}
			var rel, as, href string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "rel":
					rel = string(val)
				case "as":
					as = string(val)
				case "href":
					href = string(val)
				}
				if !more {
					break
				}
			}
			if rel == "preload" && as == "font" && strings.Contains(href, "woff2") {
				return href, true
			}
		}
	}
}

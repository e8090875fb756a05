// Package resolve turns the publishing-content navigation and detail documents
// into event records: main embed links, catalog locations and extra assets.
package resolve

import (
	"context"
	"strings"

	"github.com/jmagar/rift-cli/internal/model"
	"github.com/tidwall/gjson"
)

// Fetcher is the slice of the HTTP gateway the resolvers need.
type Fetcher interface {
	GetText(ctx context.Context, rawURL string) (string, error)
	GetJSON(ctx context.Context, rawURL string) (gjson.Result, error)
}

// Options are the immutable lookup values the resolvers run with.
type Options struct {
	NavigationURL string
	DetailBaseURL string
	ExcludedIDs   []string
	// DefaultSuffix is appended when a hint names neither a minigame nor a comic.
	DefaultSuffix string
	// GuessUnknown=false makes unclassifiable hints resolve to no catalog.
	GuessUnknown bool
}

// OptionsFromConfig copies the resolver settings out of cfg.
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		NavigationURL: cfg.NavigationURL,
		DetailBaseURL: cfg.DetailBaseURL,
		ExcludedIDs:   append([]string(nil), cfg.ExcludedIDs...),
		DefaultSuffix: cfg.CatalogDefaultSuffix,
		GuessUnknown:  cfg.CatalogGuessUnknown,
	}
}

// DefaultOptions mirrors config.Defaults for callers without a config.
func DefaultOptions() Options {
	return Options{
		NavigationURL: model.NavigationURL,
		DetailBaseURL: model.DetailBaseURL,
		ExcludedIDs:   append([]string(nil), model.DefaultExcludedIDs...),
		DefaultSuffix: model.CatalogSuffixComic,
		GuessUnknown:  true,
	}
}

func (o Options) excluded(id string) bool {
	for _, x := range o.ExcludedIDs {
		if strings.EqualFold(x, id) {
			return true
		}
	}
	return false
}

func (o Options) detailURL(id string) string {
	return strings.TrimRight(o.DetailBaseURL, "/") + "/page/" + id
}

// hasEmbedMarker reports whether s points at the embed host.
func hasEmbedMarker(s string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(model.EmbedHostMarker))
}

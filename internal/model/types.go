package model

import (
	"strings"
	"time"
)

// Config holds the resolved runtime configuration.
type Config struct {
	OutPath              string   `koanf:"out_path"`
	LogLevel             string   `koanf:"log_level"`
	LogFile              string   `koanf:"log_file"`
	APILogFile           string   `koanf:"api_log_file"`
	NavigationURL        string   `koanf:"navigation_url"`
	DetailBaseURL        string   `koanf:"detail_base_url"`
	ExcludedIDs          []string `koanf:"excluded_ids"`
	CatalogDefaultSuffix string   `koanf:"catalog_default_suffix"`
	CatalogGuessUnknown  bool     `koanf:"catalog_guess_unknown"`
	ConverterPath        string   `koanf:"converter_path"`
	ExtractorPath        string   `koanf:"extractor_path"`
	AudioDelayMS         int      `koanf:"audio_delay_ms"`
	HTTPTimeoutS         int      `koanf:"http_timeout_s"`
	RatePerSec           float64  `koanf:"rate_per_sec"`
	RateBurst            int      `koanf:"rate_burst"`
	MetricsFile          string   `koanf:"metrics_file"`
	DefaultLocale        string   `koanf:"default_locale"`
	GotifyURL            string   `koanf:"gotify_url"`
	GotifyToken          string   `koanf:"gotify_token"`
}

// AudioDelay returns the pause between consecutive audio downloads.
func (c *Config) AudioDelay() time.Duration {
	return time.Duration(c.AudioDelayMS) * time.Millisecond
}

// HTTPTimeout returns the per-request HTTP timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutS) * time.Second
}

// MainLink is an embeddable web experience attached to an event.
type MainLink struct {
	URL        string `json:"url"`
	MetagameID string `json:"metagameId,omitempty"`
	Title      string `json:"title,omitempty"`
}

// CatalogInfo locates the Unity addressables catalog for an event.
// A nil *CatalogInfo means no catalog; both fields are always set together.
type CatalogInfo struct {
	BaseURL    string `json:"baseUrl"`
	CatalogURL string `json:"catalogUrl"`
}

// NewCatalogInfo derives the bundle base URL from a full catalog.bin URL.
func NewCatalogInfo(catalogURL string) *CatalogInfo {
	if catalogURL == "" {
		return nil
	}
	return &CatalogInfo{
		BaseURL:    strings.Replace(catalogURL, CatalogFileName, "", 1),
		CatalogURL: catalogURL,
	}
}

// EventRecord is everything known about one navigation entry after resolution.
type EventRecord struct {
	NavigationItemID    string       `json:"navigationItemId"`
	Title               string       `json:"title"`
	BackgroundURL       string       `json:"backgroundUrl,omitempty"`
	IconURL             string       `json:"iconUrl,omitempty"`
	MainLinks           []MainLink   `json:"mainLinks,omitempty"`
	Catalog             *CatalogInfo `json:"catalog,omitempty"`
	AdditionalAssetURLs []string     `json:"additionalAssetUrls,omitempty"`
	HasMainEmbedURL     bool         `json:"hasMainEmbedUrl"`
}

// HasLink reports whether url is already attached (case-insensitive).
func (e *EventRecord) HasLink(url string) bool {
	for _, l := range e.MainLinks {
		if strings.EqualFold(l.URL, url) {
			return true
		}
	}
	return false
}

// AddLink appends link unless its URL is already present. Returns true when added.
func (e *EventRecord) AddLink(link MainLink) bool {
	if link.URL == "" || e.HasLink(link.URL) {
		return false
	}
	e.MainLinks = append(e.MainLinks, link)
	return true
}

// DefaultLink returns the preferred link when the user has not chosen one.
// The first link added (navigation-sourced when present) wins.
func (e *EventRecord) DefaultLink() (MainLink, bool) {
	if len(e.MainLinks) == 0 {
		return MainLink{}, false
	}
	return e.MainLinks[0], true
}

// Kind describes the download strategy available for the event.
func (e *EventRecord) Kind() string {
	var parts []string
	if e.Catalog != nil {
		parts = append(parts, "Catalog")
	}
	if e.HasMainEmbedURL {
		parts = append(parts, "Embed")
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, "+")
}

// ResolvedAssetSet is the deduplicated download selection for one event.
// Bundles, plain assets and audio clips are each keyed by literal URL.
// Scraped embed files are deduplicated by normalized name elsewhere.
type ResolvedAssetSet struct {
	Bundles []string
	Assets  []string
	Audio   []string

	seen map[string]struct{}
}

func (s *ResolvedAssetSet) add(part string, list *[]string, url string) bool {
	if url == "" {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	key := part + "\x00" + url
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	*list = append(*list, url)
	return true
}

// AddBundle records a bundle URL. Returns false for a repeat.
func (s *ResolvedAssetSet) AddBundle(url string) bool { return s.add("bundle", &s.Bundles, url) }

// AddAsset records a plain asset URL. Returns false for a repeat.
func (s *ResolvedAssetSet) AddAsset(url string) bool { return s.add("asset", &s.Assets, url) }

// AddAudio records an audio clip URL. Returns false for a repeat.
func (s *ResolvedAssetSet) AddAudio(url string) bool { return s.add("audio", &s.Audio, url) }

// Len returns the total number of URLs in the set.
func (s *ResolvedAssetSet) Len() int {
	return len(s.Bundles) + len(s.Assets) + len(s.Audio)
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	List       *ListCmd       `arg:"subcommand:list" help:"list discovered events"`
	Grab       *GrabCmd       `arg:"subcommand:grab" help:"download assets for one or more events"`
	Manifests  *ManifestsCmd  `arg:"subcommand:manifests" help:"download Riot Client theme manifest assets"`
	Completion *CompletionCmd `arg:"subcommand:completion" help:"print a shell completion script"`

	Config   string `arg:"-c,--config,env:RIFT_CONFIG" help:"path to a YAML config file"`
	OutPath  string `arg:"-o,--out" help:"asset root directory"`
	LogLevel string `arg:"--log-level" help:"debug, info, warn or error"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	All  bool `arg:"--all" help:"include info and patch-note entries"`
	JSON bool `arg:"--json" help:"print resolved records as JSON"`
}

// GrabCmd is the "grab" subcommand.
type GrabCmd struct {
	IDs  []string `arg:"positional,required" help:"navigation item ids to download"`
	Link int      `arg:"-l,--link" default:"0" help:"1-based main link to use when an event has several (default: first)"`
}

// ManifestsCmd is the "manifests" subcommand.
type ManifestsCmd struct {
	Force bool `arg:"--force" help:"ignore the once-per-month guard"`
}

// CompletionCmd is the "completion" subcommand.
type CompletionCmd struct {
	Shell string `arg:"positional,required" help:"bash, zsh or fish"`
}

// Description provides the go-arg help header.
func (Args) Description() string {
	return "rift - discover and download League client event assets\n"
}

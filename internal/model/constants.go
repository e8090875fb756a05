package model

// Backend endpoints.
const (
	NavigationURL = "https://content.publishing.riotgames.com/publishing-content/v1.0/public/client-navigation/league_client_navigation"
	DetailBaseURL = "https://content.publishing.riotgames.com/publishing-content/v2.0/public/channel/league_of_legends_client"
	// EmbedHostMarker identifies main embed links.
	EmbedHostMarker = "https://embed.rgpub.io/"
	// CMSAssetsHost serves extension-less CMS images.
	CMSAssetsHost = "https://cmsassets.rgpub.io"
)

// Catalog path suffixes appended to the CDN root.
const (
	CatalogFileName    = "catalog.bin"
	CatalogSuffixPlay  = "WebGLBuild/StreamingAssets/aa/catalog.bin"
	CatalogSuffixComic = "Comic/WebGLBuild/StreamingAssets/aa/catalog.bin"
	LocalePlaceholder  = "{locale}"
	DefaultLocale      = "en-us"
	DefaultOutPath     = "Assets"
	ScrapeManifestName = "files.txt"
)

// Per-event directory layout under the asset root.
const (
	BundlesDir         = "Bundles"
	ExtractedAssetsDir = "ExtractedAssets"
	AudioDir           = "Audio"
	EmbedScrapeDir     = "EmbedScrapedContent"
	AdditionalDir      = "AdditionalAssets"
	ManifestAssetsDir  = "RiotClientAssets"
)

// DefaultExcludedIDs are navigation entries that never carry event assets.
var DefaultExcludedIDs = []string{"info-hub", "lol-patch-notes"}

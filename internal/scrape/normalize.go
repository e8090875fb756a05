package scrape

import (
	"regexp"

	"github.com/jmagar/rift-cli/internal/api"
)

// hashSegment matches a cache-busting hex segment right before the extension.
var hashSegment = regexp.MustCompile(`\.[0-9a-fA-F]{6,16}(\.[a-zA-Z]+)$`)

// NormalizeAssetName returns the file name of rawURL with cache-busting hash
// segments removed: "image.4f9a2b1.png" becomes "image.png" while
// "image-immortalized.png" is left alone. Applying it twice changes nothing.
func NormalizeAssetName(rawURL string) string {
	name := api.FileName(rawURL)
	for {
		next := hashSegment.ReplaceAllString(name, "$1")
		if next == name {
			return name
		}
		name = next
	}
}

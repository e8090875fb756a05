package manifest

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Entry is one leaf of a flattened manifest.
type Entry struct {
	Key   string
	Value string
}

// Flatten walks a manifest object in document order. Nested object keys are
// joined with "_"; arrays and scalars are leaves.
func Flatten(doc gjson.Result) []Entry {
	var out []Entry
	flatten(doc, "", &out)
	return out
}

func flatten(v gjson.Result, prefix string, out *[]Entry) {
	if !v.IsObject() {
		return
	}
	v.ForEach(func(k, child gjson.Result) bool {
		key := k.String()
		if prefix != "" {
			key = prefix + "_" + key
		}
		if child.IsObject() {
			flatten(child, key, out)
			return true
		}
		*out = append(*out, Entry{Key: key, Value: child.String()})
		return true
	})
}

var assetExtensions = []string{
	".png", ".jpg", ".jpeg", ".webp",
	".svg", ".ico", ".webm", ".mp4",
	".mp3", ".ogg", ".wav", ".json",
}

// IsAsset reports whether a manifest value is a relative media path.
func IsAsset(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "http") {
		return false
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GameDir names the folder a manifest's assets are saved under.
func GameDir(manifestURL string) string {
	lower := strings.ToLower(manifestURL)
	switch {
	case strings.Contains(lower, "tft"):
		return "tft"
	case strings.Contains(lower, "arcane"):
		return "arcane"
	case strings.Contains(lower, "wildrift"):
		return "wr"
	case strings.Contains(lower, "valorant"):
		return "val"
	case strings.Contains(lower, "bacon"):
		return "lor"
	case strings.Contains(lower, "manifest_default.json"):
		return "lol"
	case strings.Contains(lower, "manifest_live.json"):
		return "riot-client"
	default:
		return "unknown"
	}
}

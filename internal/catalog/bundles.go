// Package catalog turns a Unity addressables catalog into the list of bundle
// URLs an event needs.
package catalog

import (
	"path"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	runtimePathToken = "{UnityEngine.AddressableAssets.Addressables.RuntimePath}"
	prefixWebGL      = "0#"
	prefixUIPrefab   = "1#"
	comicPrefix      = "comics_assets_mc_"
)

// ParseBundleURLs reads m_InternalIds from a converted catalog and returns
// the absolute URL of every WebGL bundle it references, in catalog order.
// filter narrows comic bundles, see MatchesComicFilter.
func ParseBundleURLs(doc gjson.Result, base, filter string) []string {
	ids := doc.Get("m_InternalIds")
	if !ids.IsArray() {
		return nil
	}
	var urls []string
	ids.ForEach(func(_, v gjson.Result) bool {
		id := v.String()
		if id == "" {
			return true
		}
		full, checked := rewriteInternalID(id, base)
		if !isWebGLBundle(checked) {
			return true
		}
		name := strings.ToLower(path.Base(checked))
		if !MatchesComicFilter(name, filter) {
			return true
		}
		urls = append(urls, full)
		return true
	})
	return urls
}

// rewriteInternalID returns the download URL for id and the path the bundle
// checks run against.
func rewriteInternalID(id, base string) (full, checked string) {
	switch {
	case strings.HasPrefix(id, prefixWebGL):
		checked = "WebGL/" + strings.TrimPrefix(id, prefixWebGL)
		return base + checked, checked
	case strings.HasPrefix(id, prefixUIPrefab):
		checked = "WebGL/ui_assets_assets/prefabs/ui/" + strings.TrimPrefix(id, prefixUIPrefab)
		return base + checked, checked
	default:
		return strings.ReplaceAll(id, runtimePathToken, base), id
	}
}

func isWebGLBundle(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".bundle") && strings.Contains(lower, "webgl")
}

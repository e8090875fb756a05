package catalog

import (
	"net/url"
	"path"
	"strings"
)

// MatchesComicFilter reports whether a bundle file name survives the comic
// filter. Only names starting with comics_assets_mc_ are filtered, and only
// when filter carries at least one token longer than two characters. A bundle
// is kept when any filter token and any file name token contain one another.
func MatchesComicFilter(fileName, filter string) bool {
	fileName = strings.ToLower(fileName)
	if !strings.HasPrefix(fileName, comicPrefix) || filter == "" {
		return true
	}
	var keys []string
	for _, k := range strings.Split(strings.ToLower(filter), "_") {
		if len(k) > 2 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return true
	}
	fileKeys := strings.FieldsFunc(fileName, func(r rune) bool { return r == '_' })
	for _, k := range keys {
		for _, fk := range fileKeys {
			if strings.Contains(fk, k) || strings.Contains(k, fk) {
				return true
			}
		}
	}
	return false
}

// FilterKeywords joins the distinct non-empty parts with "_" to build the
// filter string for one main link.
func FilterKeywords(parts ...string) string {
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, "_")
}

// LinkKeyword returns the file name stem of a main link's URL path, or "" when
// the path names a directory. Embed links usually end in "/<locale>/" and
// contribute nothing.
func LinkKeyword(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	name := path.Base(u.Path)
	return strings.TrimSuffix(name, path.Ext(name))
}

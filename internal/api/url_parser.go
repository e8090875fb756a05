package api

import (
	"net/url"
	"path"
	"strings"
)

// hostOf returns the host of rawURL, or rawURL itself when it does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

// FileName returns the last path segment of rawURL, ignoring query and fragment.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	p := rawURL
	if err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// Dir returns rawURL without its last path segment (no trailing slash).
func Dir(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	i := strings.LastIndex(rawURL, "/")
	if i < 0 || strings.HasSuffix(rawURL[:i+1], "://") {
		return rawURL
	}
	return rawURL[:i]
}

// Stem returns the last path segment of rawURL without its extension.
func Stem(rawURL string) string {
	name := FileName(rawURL)
	return strings.TrimSuffix(name, path.Ext(name))
}

// IsAbsoluteHTTP reports whether s starts with http (case-insensitive).
func IsAbsoluteHTTP(s string) bool {
	return len(s) >= 4 && strings.EqualFold(s[:4], "http")
}

// Join appends rel to base with exactly one slash between them.
func Join(base, rel string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

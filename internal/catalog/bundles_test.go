package catalog

import (
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

func TestParseBundleURLsRewritesInternalIDs(t *testing.T) {
	doc := gjson.Parse(`{"m_InternalIds":[
		"0#foo/bar.bundle",
		"1#baz.bundle",
		"{UnityEngine.AddressableAssets.Addressables.RuntimePath}WebGL/legacy.bundle",
		"0#scene.json",
		"Library/other.bundle",
		""
	]}`)

	got := ParseBundleURLs(doc, "https://cdn/", "")
	want := []string{
		"https://cdn/WebGL/foo/bar.bundle",
		"https://cdn/WebGL/ui_assets_assets/prefabs/ui/baz.bundle",
		"https://cdn/WebGL/legacy.bundle",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBundleURLs mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestParseBundleURLsWithoutInternalIDs(t *testing.T) {
	for _, body := range []string{`{}`, `{"m_InternalIds":"nope"}`, `[]`} {
		if got := ParseBundleURLs(gjson.Parse(body), "https://cdn/", ""); len(got) != 0 {
			t.Fatalf("ParseBundleURLs(%s) = %v, want empty", body, got)
		}
	}
}

func TestParseBundleURLsAppliesComicFilter(t *testing.T) {
	doc := gjson.Parse(`{"m_InternalIds":[
		"0#comics_assets_mc_heroevent.bundle",
		"0#comics_assets_mc_villain.bundle",
		"0#shared_assets.bundle"
	]}`)

	got := ParseBundleURLs(doc, "https://cdn/", "hero_event_2025")
	want := []string{
		"https://cdn/WebGL/comics_assets_mc_heroevent.bundle",
		"https://cdn/WebGL/shared_assets.bundle",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBundleURLs mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestMatchesComicFilter(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		filter string
		want   bool
	}{
		{"token match", "comics_assets_mc_heroevent.bundle", "hero_event_2025", true},
		{"no match", "comics_assets_mc_heroevent.bundle", "unrelated_topic", false},
		{"empty filter", "comics_assets_mc_heroevent.bundle", "", true},
		{"only short tokens", "comics_assets_mc_heroevent.bundle", "ab_cd", true},
		{"not a comic bundle", "ui_assets_main.bundle", "unrelated_topic", true},
		{"case insensitive", "Comics_Assets_MC_HeroEvent.bundle", "HERO", true},
		{"extension stays on last token", "comics_assets_mc_star.bundle", "superstarguardian", false},
		{"filter token inside file token", "comics_assets_mc_stargaze.bundle", "star_x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesComicFilter(tt.file, tt.filter); got != tt.want {
				t.Fatalf("MatchesComicFilter(%q, %q) = %v, want %v", tt.file, tt.filter, got, tt.want)
			}
		})
	}
}

func TestFilterKeywords(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"hero_event", "index"}, "hero_event_index"},
		{[]string{"", "index"}, "index"},
		{[]string{"same", "same"}, "same"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FilterKeywords(tt.parts...); got != tt.want {
			t.Errorf("FilterKeywords(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestLinkKeyword(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://embed.rgpub.io/heroevent-comic-2025/en-us/", ""},
		{"https://embed.rgpub.io/heroevent-comic-2025/{locale}/", ""},
		{"https://embed.rgpub.io/evt/en-us/index.html", "index"},
		{"https://embed.rgpub.io/evt/en-us/index.html?x=1", "index"},
		{"https://embed.rgpub.io", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LinkKeyword(tt.url); got != tt.want {
			t.Errorf("LinkKeyword(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDirectoryLinkKeepsComicBundles(t *testing.T) {
	filter := FilterKeywords("", LinkKeyword("https://embed.rgpub.io/heroevent-comic-2025/en-us/"))
	if filter != "" {
		t.Fatalf("filter = %q, want empty", filter)
	}
	if !MatchesComicFilter("comics_assets_mc_heroevent_ep1.bundle", filter) {
		t.Fatalf("comic bundle dropped with filter %q", filter)
	}
}

package model

import (
	"testing"
	"time"
)

func TestEventRecordLinks(t *testing.T) {
	rec := &EventRecord{}
	if _, ok := rec.DefaultLink(); ok {
		t.Fatal("empty record has a default link")
	}
	if !rec.AddLink(MainLink{URL: "https://embed.rgpub.io/a"}) {
		t.Fatal("first link not added")
	}
	if rec.AddLink(MainLink{URL: "HTTPS://EMBED.RGPUB.IO/A"}) {
		t.Fatal("case-insensitive duplicate was added")
	}
	if rec.AddLink(MainLink{}) {
		t.Fatal("empty link was added")
	}
	rec.AddLink(MainLink{URL: "https://embed.rgpub.io/b"})
	if l, _ := rec.DefaultLink(); l.URL != "https://embed.rgpub.io/a" {
		t.Fatalf("DefaultLink() = %q, want the first link", l.URL)
	}
}

func TestEventRecordKind(t *testing.T) {
	tests := []struct {
		rec  EventRecord
		want string
	}{
		{EventRecord{}, "N/A"},
		{EventRecord{HasMainEmbedURL: true}, "Embed"},
		{EventRecord{Catalog: NewCatalogInfo("https://cdn/x/catalog.bin")}, "Catalog"},
		{EventRecord{Catalog: NewCatalogInfo("https://cdn/x/catalog.bin"), HasMainEmbedURL: true}, "Catalog+Embed"},
	}
	for _, tt := range tests {
		if got := tt.rec.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewCatalogInfo(t *testing.T) {
	if NewCatalogInfo("") != nil {
		t.Fatal("empty catalog url produced a CatalogInfo")
	}
	info := NewCatalogInfo("https://cdn/x/" + CatalogSuffixComic)
	if info.BaseURL != "https://cdn/x/Comic/WebGLBuild/StreamingAssets/aa/" {
		t.Fatalf("BaseURL = %q", info.BaseURL)
	}
}

func TestResolvedAssetSetDeduplicatesPerPartition(t *testing.T) {
	var set ResolvedAssetSet
	if !set.AddBundle("https://cdn/a.bundle") || set.AddBundle("https://cdn/a.bundle") {
		t.Fatal("bundle dedup failed")
	}
	if !set.AddAsset("https://cdn/a.bundle") {
		t.Fatal("partitions must not share keys")
	}
	if set.AddAsset("") {
		t.Fatal("empty url was added")
	}
	set.AddAudio("https://cdn/a.ogg")
	set.AddAudio("https://cdn/a.ogg")
	if set.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", set.Len())
	}
}

func TestConfigDurations(t *testing.T) {
	cfg := &Config{AudioDelayMS: 250, HTTPTimeoutS: 30}
	if cfg.AudioDelay() != 250*time.Millisecond || cfg.HTTPTimeout() != 30*time.Second {
		t.Fatalf("durations = %v, %v", cfg.AudioDelay(), cfg.HTTPTimeout())
	}
}

package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/jmagar/rift-cli/internal/model"
	. "github.com/smartystreets/goconvey/convey"
)

const navigationDoc = `{"data": [
  {"navigationItemID": "spirit-blossom", "title": "Spirit Blossom",
   "action": {"payload": {"url": "https://embed.rgpub.io/sb/"}},
   "background": {"url": "https://cdn/sb-bg.jpg"}, "icon": {"url": "https://cdn/sb-icon.png"}},
  {"navigationItemID": "lol-patch-notes", "title": "Patch Notes"},
  {"navigationItemID": "arcane", "title": "Arcane"},
  {"navigationItemID": 12, "title": "bad id"},
  {"navigationItemID": "no-title"},
  {"navigationItemID": "arcane", "title": "Arcane again"}
]}`

const fontPage = `<link rel="preload" as="font" href="https://cdn.game/sb/_next/static/media/f.woff2">`

func newTestCoordinator(f *fakeFetcher) *Coordinator {
	opts := DefaultOptions()
	opts.NavigationURL = "https://nav"
	opts.DetailBaseURL = "https://detail"
	return NewCoordinator(f, NewCatalogBaseResolver(f, opts, nil), opts, nil, nil)
}

func TestTrackEvents(t *testing.T) {
	Convey("Given a navigation document with three valid entries", t, func() {
		f := newFakeFetcher()
		f.bodies["https://nav"] = navigationDoc
		f.bodies["https://embed.rgpub.io/sb/"] = fontPage
		f.bodies["https://detail/page/spirit-blossom"] = `{"blades":[{"links":[
			{"title":"Comic","action":{"type":"lc_open_metagame","payload":{"url":"https://embed.rgpub.io/sb/","metagameId":"dup"}}},
			{"title":"Play","action":{"type":"lc_open_metagame","payload":{"url":"https://embed.rgpub.io/sb/play","metagameId":"sb_play"}}}
		]}]}`
		f.bodies["https://detail/page/arcane"] = `{"title":"Arcane Detail","blades":[{"links":[
			{"title":"Play the minigame","action":{"type":"lc_open_metagame","payload":{"url":"https://embed.rgpub.io/arcane/"}}}
		],"backdrop":{"background":{"url":"https://cdn/arcane.jpg"}}}]}`
		f.bodies["https://embed.rgpub.io/arcane/"] = `<link rel="preload" as="font" href="https://cdn.game/arcane/_next/static/media/f.woff2">`

		index, err := newTestCoordinator(f).TrackEvents(context.Background())

		Convey("Then one record per valid entry is produced in navigation order", func() {
			So(err, ShouldBeNil)
			So(index.Len(), ShouldEqual, 3)
			ids := []string{}
			for _, r := range index.Records() {
				ids = append(ids, r.NavigationItemID)
			}
			So(ids, ShouldResemble, []string{"spirit-blossom", "lol-patch-notes", "arcane"})
		})

		Convey("Then the navigation link comes first and detail links are merged without duplicates", func() {
			rec, ok := index.Lookup("spirit-blossom")
			So(ok, ShouldBeTrue)
			So(len(rec.MainLinks), ShouldEqual, 2)
			So(rec.MainLinks[0], ShouldResemble, model.MainLink{URL: "https://embed.rgpub.io/sb/", Title: "Spirit Blossom"})
			So(rec.MainLinks[1].MetagameID, ShouldEqual, "sb_play")
			So(rec.HasMainEmbedURL, ShouldBeTrue)
			So(rec.BackgroundURL, ShouldEqual, "https://cdn/sb-bg.jpg")
			So(rec.IconURL, ShouldEqual, "https://cdn/sb-icon.png")
		})

		Convey("Then the catalog is resolved from the event title and its base drops catalog.bin", func() {
			rec, _ := index.Lookup("spirit-blossom")
			So(rec.Catalog, ShouldNotBeNil)
			So(rec.Catalog.CatalogURL, ShouldEqual, "https://cdn.game/sb/"+model.CatalogSuffixComic)
			So(rec.Catalog.BaseURL, ShouldEqual, "https://cdn.game/sb/Comic/WebGLBuild/StreamingAssets/aa/")
			So(f.count("https://embed.rgpub.io/sb/"), ShouldEqual, 1)
		})

		Convey("Then excluded ids are not looked up in detail", func() {
			rec, _ := index.Lookup("LOL-PATCH-NOTES")
			So(rec.Kind(), ShouldEqual, "N/A")
			So(f.count("https://detail/page/lol-patch-notes"), ShouldEqual, 0)
		})

		Convey("Then a detail-only link drives the catalog retry with its own title", func() {
			rec, _ := index.Lookup("arcane")
			So(rec.Title, ShouldEqual, "Arcane Detail")
			So(rec.Catalog, ShouldNotBeNil)
			So(rec.Catalog.CatalogURL, ShouldEqual, "https://cdn.game/arcane/"+model.CatalogSuffixPlay)
			So(rec.AdditionalAssetURLs, ShouldResemble, []string{"https://cdn/arcane.jpg"})
			So(rec.Kind(), ShouldEqual, "Catalog+Embed")
		})
	})

	Convey("Given a detail page that cannot be fetched", t, func() {
		f := newFakeFetcher()
		f.bodies["https://nav"] = `{"data":[{"navigationItemID":"gone","title":"Gone"}]}`

		index, err := newTestCoordinator(f).TrackEvents(context.Background())

		Convey("Then the event is still listed without assets", func() {
			So(err, ShouldBeNil)
			So(index.Len(), ShouldEqual, 1)
			rec, _ := index.Lookup("gone")
			So(rec.HasMainEmbedURL, ShouldBeFalse)
			So(rec.Catalog, ShouldBeNil)
		})
	})

	Convey("Given an embed page that fails on the first request", t, func() {
		f := newFakeFetcher()
		f.bodies["https://nav"] = `{"data":[{"navigationItemID":"sb","title":"Spirit Blossom",
			"action":{"payload":{"url":"https://embed.rgpub.io/sb/"}}}]}`
		f.bodies["https://detail/page/sb"] = `{"blades":[]}`
		f.bodies["https://embed.rgpub.io/sb/"] = fontPage
		f.failOnce["https://embed.rgpub.io/sb/"] = true

		index, err := newTestCoordinator(f).TrackEvents(context.Background())

		Convey("Then the catalog lookup is retried after the detail merge", func() {
			So(err, ShouldBeNil)
			rec, _ := index.Lookup("sb")
			So(rec.Catalog, ShouldNotBeNil)
			So(rec.Catalog.CatalogURL, ShouldEqual, "https://cdn.game/sb/"+model.CatalogSuffixComic)
			So(f.count("https://embed.rgpub.io/sb/"), ShouldEqual, 2)
		})
	})

	Convey("Given a navigation document without data", t, func() {
		f := newFakeFetcher()
		f.bodies["https://nav"] = `{"items":[]}`

		_, err := newTestCoordinator(f).TrackEvents(context.Background())

		Convey("Then TrackEvents reports it", func() {
			So(errors.Is(err, ErrNoNavigationData), ShouldBeTrue)
		})
	})
}

package resolve

import (
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/tidwall/gjson"
)

const (
	actionOpenMetagame = "lc_open_metagame"
	actionOpenIframe   = "open_iframe"
)

// bladeLinks returns header.links when present, otherwise links.
func bladeLinks(blade gjson.Result) gjson.Result {
	if l := blade.Get("header.links"); l.Exists() {
		return l
	}
	return blade.Get("links")
}

// MainLinksFromDetailPage collects the lc_open_metagame embed links of a detail
// page in document order, dropping repeated URLs. When the page carries a
// string title it is copied onto rec.
func MainLinksFromDetailPage(doc gjson.Result, rec *model.EventRecord) []model.MainLink {
	if rec != nil {
		if t := doc.Get("title"); t.Type == gjson.String {
			rec.Title = t.Str
		}
	}

	var found model.EventRecord
	doc.Get("blades").ForEach(func(_, blade gjson.Result) bool {
		bladeLinks(blade).ForEach(func(_, link gjson.Result) bool {
			if link.Get("action.type").String() != actionOpenMetagame {
				return true
			}
			u := link.Get("action.payload.url")
			if u.Type != gjson.String || !hasEmbedMarker(u.Str) {
				return true
			}
			found.AddLink(model.MainLink{
				URL:        u.Str,
				MetagameID: link.Get("action.payload.metagameId").String(),
				Title:      link.Get("title").String(),
			})
			return true
		})
		return true
	})
	return found.MainLinks
}

// AdditionalAssetURLs gathers media URLs referenced by the blades of a detail
// page: backdrops, header media, tab CTAs, link media and iframe links.
// Result is deduplicated, first-seen order.
func AdditionalAssetURLs(doc gjson.Result) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	add := func(r gjson.Result) {
		if r.Type != gjson.String || r.Str == "" {
			return
		}
		if _, ok := seen[r.Str]; ok {
			return
		}
		seen[r.Str] = struct{}{}
		out = append(out, r.Str)
	}

	doc.Get("blades").ForEach(func(_, blade gjson.Result) bool {
		bg := blade.Get("backdrop.background")
		add(bg.Get("url"))
		bg.Get("sources").ForEach(func(_, src gjson.Result) bool {
			add(src.Get("src"))
			return true
		})
		add(bg.Get("thumbnail.url"))
		add(blade.Get("header.media.url"))

		blade.Get("leagueClientTabContentGroups").ForEach(func(_, group gjson.Result) bool {
			group.Get("ctas").ForEach(func(_, cta gjson.Result) bool {
				add(cta.Get("media.url"))
				return true
			})
			return true
		})

		bladeLinks(blade).ForEach(func(_, link gjson.Result) bool {
			add(link.Get("media.url"))
			if link.Get("action.type").String() == actionOpenIframe {
				add(link.Get("action.payload.url"))
			}
			return true
		})
		return true
	})
	return out
}

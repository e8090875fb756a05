package resolve

import "github.com/tidwall/gjson"

// MainURLFromNavigationItem returns the item's action.payload.url when it is a
// string pointing at the embed host.
func MainURLFromNavigationItem(item gjson.Result) (string, bool) {
	u := item.Get("action.payload.url")
	if u.Type != gjson.String || !hasEmbedMarker(u.Str) {
		return "", false
	}
	return u.Str, true
}

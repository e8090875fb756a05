package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/tidwall/gjson"
)

// CatalogLocator finds the catalog.bin URL behind an embed page.
type CatalogLocator interface {
	Resolve(ctx context.Context, embedURL, hint string) (string, bool)
}

// EventIndex holds resolved records in navigation order, keyed by id.
type EventIndex struct {
	records []*model.EventRecord
	byID    map[string]*model.EventRecord
}

func newEventIndex() *EventIndex {
	return &EventIndex{byID: make(map[string]*model.EventRecord)}
}

func (x *EventIndex) add(rec *model.EventRecord) bool {
	if _, dup := x.byID[rec.NavigationItemID]; dup {
		return false
	}
	x.byID[rec.NavigationItemID] = rec
	x.records = append(x.records, rec)
	return true
}

// Records returns the records in navigation order.
func (x *EventIndex) Records() []*model.EventRecord {
	return x.records
}

// Len returns the number of records.
func (x *EventIndex) Len() int {
	return len(x.records)
}

// Lookup finds a record by id, falling back to a case-insensitive match.
func (x *EventIndex) Lookup(id string) (*model.EventRecord, bool) {
	if rec, ok := x.byID[id]; ok {
		return rec, true
	}
	for _, rec := range x.records {
		if strings.EqualFold(rec.NavigationItemID, id) {
			return rec, true
		}
	}
	return nil, false
}

// Coordinator drives navigation discovery and per-event enrichment.
type Coordinator struct {
	fetch   Fetcher
	catalog CatalogLocator
	opts    Options
	log     logger.Logger
	metrics *metrics.Recorder
}

// NewCoordinator wires a Coordinator. log and rec may be nil.
func NewCoordinator(fetch Fetcher, catalog CatalogLocator, opts Options, log logger.Logger, rec *metrics.Recorder) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{fetch: fetch, catalog: catalog, opts: opts, log: log, metrics: rec}
}

// TrackEvents fetches the navigation document and resolves every entry with a
// string navigationItemID and title. Failures on one entry are logged and
// never stop the others; only an unusable navigation document is an error.
func (c *Coordinator) TrackEvents(ctx context.Context) (*EventIndex, error) {
	doc, err := c.fetch.GetJSON(ctx, c.opts.NavigationURL)
	if err != nil {
		return nil, fmt.Errorf("fetch navigation: %w", err)
	}
	data := doc.Get("data")
	if !data.IsArray() {
		return nil, fmt.Errorf("navigation document has no data array: %w", ErrNoNavigationData)
	}

	index := newEventIndex()
	for _, item := range data.Array() {
		if err := ctx.Err(); err != nil {
			return index, err
		}
		id, title := item.Get("navigationItemID"), item.Get("title")
		if id.Type != gjson.String || title.Type != gjson.String {
			continue
		}
		if _, dup := index.byID[id.Str]; dup {
			c.log.Warn(ctx, "duplicate navigation id ignored", logger.String("id", id.Str))
			continue
		}
		rec := c.resolveItem(ctx, item, id.Str, title.Str)
		index.add(rec)
		c.metrics.EventResolved()
	}
	return index, nil
}

// resolveItem walks one entry through link, catalog and detail resolution.
func (c *Coordinator) resolveItem(ctx context.Context, item gjson.Result, id, title string) *model.EventRecord {
	rec := &model.EventRecord{NavigationItemID: id, Title: title}
	log := c.log.Named("coordinator")

	// The second attempt runs even for the same link and hint, so a failed
	// embed page fetch gets one retry.
	tryCatalog := func(embedURL, hint string) {
		if rec.Catalog != nil || c.catalog == nil {
			return
		}
		if catalogURL, ok := c.catalog.Resolve(ctx, embedURL, hint); ok {
			rec.Catalog = model.NewCatalogInfo(catalogURL)
		}
	}

	if navURL, ok := MainURLFromNavigationItem(item); ok {
		rec.AddLink(model.MainLink{URL: navURL, Title: title})
		tryCatalog(navURL, title)
	}
	if bg := item.Get("background.url"); bg.Type == gjson.String {
		rec.BackgroundURL = bg.Str
	}
	if icon := item.Get("icon.url"); icon.Type == gjson.String {
		rec.IconURL = icon.Str
	}

	if !c.opts.excluded(id) {
		c.enrichFromDetail(ctx, rec, log)
		if first, ok := rec.DefaultLink(); ok {
			tryCatalog(first.URL, first.Title)
		}
	}

	rec.HasMainEmbedURL = len(rec.MainLinks) > 0
	log.Debug(ctx, "event resolved",
		logger.String("id", id),
		logger.String("kind", rec.Kind()),
		logger.Int("links", len(rec.MainLinks)),
		logger.Int("extra_assets", len(rec.AdditionalAssetURLs)))
	return rec
}

// enrichFromDetail merges the detail page into rec. A failed fetch or a
// traversal panic leaves whatever was merged so far.
func (c *Coordinator) enrichFromDetail(ctx context.Context, rec *model.EventRecord, log logger.Logger) {
	detailURL := c.opts.detailURL(rec.NavigationItemID)
	doc, err := c.fetch.GetJSON(ctx, detailURL)
	if err != nil {
		log.Warn(ctx, "detail page unavailable", logger.String("id", rec.NavigationItemID), logger.Error(err))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "detail page traversal failed",
				logger.String("id", rec.NavigationItemID), logger.Any("panic", r))
		}
	}()

	for _, link := range MainLinksFromDetailPage(doc, rec) {
		rec.AddLink(link)
	}
	rec.AdditionalAssetURLs = append(rec.AdditionalAssetURLs, AdditionalAssetURLs(doc)...)
}

package main

import (
	"net/http"

	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/audio"
	"github.com/jmagar/rift-cli/internal/catalog"
	"github.com/jmagar/rift-cli/internal/download"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/manifest"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/notify"
	"github.com/jmagar/rift-cli/internal/process"
	"github.com/jmagar/rift-cli/internal/resolve"
	"github.com/jmagar/rift-cli/internal/scrape"
	"github.com/jmagar/rift-cli/internal/tools"
)

// app holds the wired pipeline for one invocation.
type app struct {
	cfg         *model.Config
	log         logger.Logger
	metrics     *metrics.Recorder
	client      *api.Client
	fetch       *download.Fetcher
	coordinator *resolve.Coordinator
	processor   *process.Processor
	notifier    *notify.Gotify
	manifestOpt []manifest.Option
}

// newApp wires every component from cfg. transport may be nil.
func newApp(cfg *model.Config, log logger.Logger, rec *metrics.Recorder, reqLog *api.RequestLog, transport http.RoundTripper) *app {
	client := api.New(api.Options{
		Timeout:    cfg.HTTPTimeout(),
		RatePerSec: cfg.RatePerSec,
		Burst:      cfg.RateBurst,
		Transport:  transport,
		Log:        reqLog,
	})
	fetch := download.NewFetcher(client, log, rec)

	opts := resolve.OptionsFromConfig(cfg)
	coordinator := resolve.NewCoordinator(client,
		resolve.NewCatalogBaseResolver(client, opts, log.Named("catalog-base")),
		opts, log, rec)

	converter := tools.NewConverter(helpers.ResolveToolPath(cfg.ConverterPath), log, rec)
	extractor := tools.NewExtractor(helpers.ResolveToolPath(cfg.ExtractorPath), log, rec)

	deps := process.Deps{
		Bundles:   catalog.NewBundleResolver(client, converter, log, rec),
		Extractor: extractor,
		Audio:     audio.NewResolver(fetch, cfg.AudioDelay(), log),
		Scraper:   scrape.NewScraper(client, fetch, scrape.DefaultMainFileRules(), log, rec),
		Fetcher:   fetch,
	}

	return &app{
		cfg:         cfg,
		log:         log,
		metrics:     rec,
		client:      client,
		fetch:       fetch,
		coordinator: coordinator,
		processor:   process.New(cfg.OutPath, cfg.DefaultLocale, deps, log, rec),
		notifier:    notify.NewGotify(cfg.GotifyURL, cfg.GotifyToken, transport),
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/manifest"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/notify"
	"github.com/jmagar/rift-cli/internal/ui"
)

// hiddenIDMarkers mark navigation entries that are not events.
var hiddenIDMarkers = []string{"patch", "info-hub"}

// visibleRecords drops info and patch-note entries unless all is set.
func visibleRecords(records []*model.EventRecord, all bool) []*model.EventRecord {
	if all {
		return records
	}
	out := make([]*model.EventRecord, 0, len(records))
next:
	for _, rec := range records {
		id := strings.ToLower(rec.NavigationItemID)
		for _, m := range hiddenIDMarkers {
			if strings.Contains(id, m) {
				continue next
			}
		}
		out = append(out, rec)
	}
	return out
}

// selectLink picks the 1-based main link n, or the default link when n is 0.
// An event without links yields the zero link.
func selectLink(rec *model.EventRecord, n int) (model.MainLink, error) {
	if n == 0 {
		link, _ := rec.DefaultLink()
		return link, nil
	}
	if n < 0 || n > len(rec.MainLinks) {
		return model.MainLink{}, fmt.Errorf("%w: %d (event %s has %d)",
			model.ErrLinkOutOfRange, n, rec.NavigationItemID, len(rec.MainLinks))
	}
	return rec.MainLinks[n-1], nil
}

func (a *app) list(ctx context.Context, cmd *model.ListCmd) error {
	index, err := a.coordinator.TrackEvents(ctx)
	if err != nil {
		return err
	}
	records := visibleRecords(index.Records(), cmd.All)

	if cmd.JSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	ui.PrintHeader(fmt.Sprintf("%d events", len(records)))
	ui.PrintEventTable(records)
	return nil
}

func (a *app) grab(ctx context.Context, cmd *model.GrabCmd) error {
	ids, err := helpers.ProcessIDs(cmd.IDs)
	if err != nil {
		return err
	}
	index, err := a.coordinator.TrackEvents(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, ok := index.Lookup(id)
		if !ok {
			ui.PrintError(fmt.Sprintf("%s: %v", id, model.ErrEventNotFound))
			failed++
			continue
		}
		link, err := selectLink(rec, cmd.Link)
		if err != nil {
			ui.PrintError(err.Error())
			failed++
			continue
		}

		ui.PrintEventDetail(rec)
		ui.PrintDownload(fmt.Sprintf("%s [%s]", rec.Title, rec.Kind()))
		if err := a.processor.ProcessEvent(ctx, rec, link); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			ui.PrintError(err.Error())
			failed++
			continue
		}
		ui.PrintSuccess(fmt.Sprintf("%s (%s on disk)", rec.NavigationItemID, a.diskUsage(rec.NavigationItemID)))
	}

	if err := helpers.RemoveEmptyDirs(ctx, a.cfg.OutPath); err != nil {
		a.log.Warn(ctx, "pruning empty directories failed", logger.Error(err))
	}
	ui.PrintInfo(ui.Summary())
	msg := fmt.Sprintf("%d of %d events processed, %s", len(ids)-failed, len(ids), ui.Summary())
	priority := notify.PriorityNormal
	if failed > 0 {
		priority = notify.PriorityHigh
	}
	a.sendNotification(ctx, "rift grab", msg, priority)

	if failed > 0 {
		return fmt.Errorf("%d of %d events failed", failed, len(ids))
	}
	return nil
}

func (a *app) diskUsage(id string) string {
	dir, err := a.processor.EventDir(id)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(helpers.CalculateLocalSize(dir)))
}

func (a *app) sendNotification(ctx context.Context, title, msg string, priority int) {
	if err := a.notifier.Send(ctx, title, msg, priority); err != nil {
		a.log.Warn(ctx, "notification not sent", logger.Error(err))
	}
}

func (a *app) manifests(ctx context.Context, cmd *model.ManifestsCmd) error {
	opts := append([]manifest.Option{manifest.WithForce(cmd.Force)}, a.manifestOpt...)
	svc := manifest.NewService(a.client, a.fetch, a.cfg.OutPath, a.log, a.metrics, opts...)

	report, err := svc.DownloadAll(ctx)
	var already *manifest.AlreadyDownloadedError
	switch {
	case errors.As(err, &already):
		ui.PrintWarning(fmt.Sprintf("manifests already downloaded this month, next run on %s (use --force to override)",
			already.Next.Format("2006-01-02")))
		return nil
	case errors.Is(err, manifest.ErrInProgress):
		ui.PrintWarning("another manifest download is already running")
		return nil
	case err != nil:
		return err
	}

	msg := fmt.Sprintf("%d/%d manifests, %d of %d assets downloaded",
		report.Manifests-report.Failed, report.Manifests, report.Downloaded, report.Assets)
	ui.PrintSuccess(msg)
	a.sendNotification(ctx, "rift manifests", msg, notify.PriorityNormal)
	ui.PrintInfo("next run after " + report.NextRun.Format("2006-01-02"))
	return nil
}

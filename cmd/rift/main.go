// Command rift discovers League client events and downloads their assets.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmagar/rift-cli/internal/api"
	"github.com/jmagar/rift-cli/internal/completion"
	"github.com/jmagar/rift-cli/internal/config"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
	"github.com/jmagar/rift-cli/internal/model"
	"github.com/jmagar/rift-cli/internal/ui"
)

var errNoCommand = errors.New("no command given, run rift --help")

func main() {
	args := config.ParseArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, args)
	stop()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("interrupted")
			os.Exit(130)
		}
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args *model.Args) error {
	if args.Completion != nil {
		return completion.Write(ui.Out, args.Completion.Shell)
	}

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log, closer, err := logger.New(os.Stderr, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	var reqLog *api.RequestLog
	if cfg.APILogFile != "" {
		reqLog, err = api.OpenRequestLog(cfg.APILogFile)
		if err != nil {
			return err
		}
		defer reqLog.Close()
	}

	rec := metrics.New()
	defer func() {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "metrics not written", logger.Error(err))
		}
	}()

	a := newApp(cfg, log, rec, reqLog, nil)
	switch {
	case args.List != nil:
		return a.list(ctx, args.List)
	case args.Grab != nil:
		return a.grab(ctx, args.Grab)
	case args.Manifests != nil:
		return a.manifests(ctx, args.Manifests)
	default:
		return errNoCommand
	}
}

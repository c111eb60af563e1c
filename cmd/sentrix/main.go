package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/anuragthippani1/SentriX/internal/cli"
	"github.com/anuragthippani1/SentriX/internal/config"
	"github.com/anuragthippani1/SentriX/internal/logging"
	"github.com/anuragthippani1/SentriX/internal/political"
	"github.com/anuragthippani1/SentriX/internal/report"
	"github.com/anuragthippani1/SentriX/internal/routeplan"
	"github.com/anuragthippani1/SentriX/internal/schedule"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout stays valid JSON.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	format := "json"
	if isatty.IsTerminal(os.Stderr.Fd()) {
		format = "console"
	}
	logger, err := logging.New("sentrix", level, format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, closeFetcher := political.NewFetcherFromConfig(ctx, cfg, logger)
	defer closeFetcher()

	app := &cli.App{
		Scheduler: schedule.New(),
		Planner:   routeplan.New(),
		Political: political.NewAnalyzer(fetcher, logger.Named("political")),
		Builder:   report.NewBuilder(),
		News:      fetcher,
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

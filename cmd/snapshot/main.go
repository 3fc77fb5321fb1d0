package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/relomy/dk-results/internal/app"
	"github.com/relomy/dk-results/internal/config"
	"github.com/relomy/dk-results/internal/observability"
	"github.com/relomy/dk-results/internal/platform/logging"
	"github.com/relomy/dk-results/internal/usecase"
)

func main() {
	trackFlag := flag.String("track", "", "comma-separated contest ids to register before the run")
	contestFlag := flag.Int64("contest", 0, "pin the run to one contest id (requires -sport)")
	sportFlag := flag.String("sport", "", "limit the run to one sport")
	intervalFlag := flag.Duration("interval", 0, "rerun interval; 0 runs once")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof", "error", err)
		os.Exit(1)
	}

	application, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	if err := run(ctx, application, cfg, runOptions{
		trackIDs: parseTrackIDs(*trackFlag, logger),
		contest:  *contestFlag,
		sport:    *sportFlag,
		interval: *intervalFlag,
	}, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("snapshot run failed", "error", err)
		exitCode = 1
	}

	stop()
	if err := application.Close(); err != nil {
		logger.Error("close app", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof", "error", err)
	}
	if err := stopPyroscope(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := shutdownUptrace(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}

	os.Exit(exitCode)
}

type runOptions struct {
	trackIDs []int64
	contest  int64
	sport    string
	interval time.Duration
}

func run(ctx context.Context, application *app.App, cfg config.Config, opts runOptions, logger *logging.Logger) error {
	for _, id := range opts.trackIDs {
		if _, err := application.Tracker.Track(ctx, id); err != nil {
			logger.Error("track contest failed", "contest_id", id, "error", err)
		}
	}

	sports := usecase.SortedSports(cfg.Sports)
	if opts.sport != "" {
		sports = []string{opts.sport}
	}

	if err := runOnce(ctx, application, sports, opts, logger); err != nil {
		return err
	}
	if opts.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := runOnce(ctx, application, sports, opts, logger); err != nil {
				logger.Error("snapshot run failed", "error", err)
			}
		}
	}
}

func runOnce(ctx context.Context, application *app.App, sports []string, opts runOptions, logger *logging.Logger) error {
	var (
		bundle usecase.BundleResult
		err    error
	)
	if opts.contest > 0 {
		if len(sports) != 1 {
			return errors.New("-contest requires exactly one sport")
		}
		contestID := opts.contest
		bundle, err = application.Bundle.BuildOne(ctx, sports[0], &contestID)
	} else {
		bundle, err = application.Bundle.Build(ctx, sports)
	}
	if err != nil {
		return err
	}

	result, err := application.Publisher.Publish(ctx, bundle)
	if err != nil {
		return err
	}
	logger.Info("snapshot run complete",
		"snapshot_path", result.SnapshotPath,
		"sports", bundle.SportCount,
		"failures", bundle.FailureCount,
	)

	for sport := range bundle.Failures {
		start, ok, nextErr := application.Tracker.NextStart(ctx, sport)
		if nextErr != nil || !ok {
			continue
		}
		logger.Info("next contest scheduled", "sport", sport, "start_time", start)
	}

	for _, sport := range sports {
		if _, sweepErr := application.Tracker.Sweep(ctx, sport); sweepErr != nil {
			logger.Warn("contest sweep failed", "sport", sport, "error", sweepErr)
		}
	}

	return nil
}

func parseTrackIDs(raw string, logger *logging.Logger) []int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	out := make([]int64, 0, strings.Count(raw, ",")+1)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil || id <= 0 {
			logger.Warn("skipping invalid contest id", "value", token)
			continue
		}
		out = append(out, id)
	}

	return out
}

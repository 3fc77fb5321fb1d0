package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relomy/dk-results/internal/config"
	"github.com/relomy/dk-results/internal/interfaces/feedhttp"
	"github.com/relomy/dk-results/internal/observability"
	"github.com/relomy/dk-results/internal/platform/logging"
)

func main() {
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

	handler := feedhttp.NewHandler(cfg.OutputDir, logger)
	srv := feedhttp.NewServer(handler, cfg.FeedReadTimeout, cfg.FeedWriteTimeout)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("feed server listening", "addr", cfg.FeedAddr, "root", cfg.OutputDir)
		serveErr <- srv.ListenAndServe(cfg.FeedAddr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("feed server failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown feed server", "error", err)
	}
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

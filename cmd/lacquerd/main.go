package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"lacquer/internal/config"
	"lacquer/internal/daemon"
	"lacquer/internal/jobs"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
	"lacquer/internal/notifications"
	"lacquer/internal/pipeline"
	"lacquer/internal/resolve"
	"lacquer/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Jellyfin.URL == "" {
		log.Fatal("jellyfin.url must be configured; run `lacquer config init` to create a config file")
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	server, err := mediaserver.New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
	if err != nil {
		logger.Error("create media server client", logging.Error(err))
		return
	}

	set := resolve.NewSet(cfg, logger, buildOMDbClient(cfg, logger), buildTMDBClient(cfg, logger))
	controller := pipeline.New(cfg, logger, server, set)
	scheduler := worker.New(cfg, store, controller, notifications.NewService(cfg), logger)

	d, err := daemon.New(cfg, store, logger, scheduler)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("lacquerd shutting down")
}

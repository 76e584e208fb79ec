package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"crate/internal/config"
	"crate/internal/daemon"
	"crate/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "crated.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", logging.Error(err))
		return
	}
	logger.Info("crated shut down")
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tempo/internal/config"
	"tempo/internal/daemon"
	"tempo/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the tempo configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			log.Fatalf("tempod is already running (lock %s)", cfg.LockFilePath())
		}
		logger.Error("daemon stopped", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("tempod shut down")
}

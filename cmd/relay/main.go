package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bkode/storefront/internal/config"
	"github.com/bkode/storefront/internal/logger"
	"github.com/bkode/storefront/internal/relay"
	"github.com/bkode/storefront/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "storefront-relay",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer repo.Close()

	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	poller := relay.NewPoller(repo, log, cfg.KafkaTopic, cfg.KafkaBrokers...)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	log.Info("outbox relay starting", slog.String("topic", cfg.KafkaTopic))
	poller.Run(ctx)
	log.Info("outbox relay stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"cassa/internal/amqp"
	"cassa/internal/backend"
	"cassa/internal/cli"
	"cassa/internal/log"
	"cassa/internal/worker"
)

const (
	dedupeSize = 10000
	dedupeTTL  = 24 * time.Hour
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.MustLoadConfig()
	logger, err := cli.SetupLogger(os.Stdout, cfg, log.ComponentWorker)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("Starting cassa-worker", log.FieldOperation, log.OpStartup)

	if cfg.DataBackend != "sqlite" || cfg.AMQPURL == "" {
		logger.Error("The worker needs DATA_BACKEND=sqlite and AMQP_URL",
			log.FieldBackend, cfg.DataBackend,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker consumes the queue, so it applies intents to the store
	// instead of publishing them again.
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize SQLite backend", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer res.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewIntentWorker(res.Executor, dedupeSize, dedupeTTL)
	caches := res.Caches
	caches.Register(w.Seen())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, client)
	})
	g.Go(func() error {
		return caches.Run(gctx, cfg.CacheCleanupInterval)
	})

	err = g.Wait()
	stats := w.Stats()
	logger.Info("Worker stopped",
		log.FieldOperation, log.OpShutdown,
		"applied", stats.Applied,
		"duplicates", stats.Duplicates,
		"dropped", stats.Dropped)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"portfolio/internal/app"
	"portfolio/internal/config"
	"portfolio/internal/log"
	"portfolio/internal/queue"
	"portfolio/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel).With().Str("process", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations are left to the API process.
	cfg.Postgres.MigrateOnStart = false
	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start backend")
	}
	defer backend.Close()

	processor := tasks.NewProcessor(backend.Reconciler, logger)
	consumer := queue.NewConsumer(
		backend.Redis,
		cfg.Reconcile.Stream,
		cfg.Reconcile.Group,
		cfg.Reconcile.Consumer,
		cfg.Reconcile.ClaimInterval,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Reconcile.Stream).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("worker exited cleanly")
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"portfolio/internal/app"
	"portfolio/internal/config"
	"portfolio/internal/handlers"
	"portfolio/internal/jobs"
	"portfolio/internal/log"
	"portfolio/internal/queue"
	"portfolio/internal/ratelimit"
	"portfolio/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start backend")
	}

	if err := backend.Services.Auth.Bootstrap(ctx); err != nil {
		logger.Error().Err(err).Msg("bootstrap operator failed")
	}

	producer := queue.NewProducer(backend.Redis, cfg.Reconcile.Stream)

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:            logger,
		Environment:    cfg.Environment,
		JWTSecret:      cfg.Security.JWTAccessSecret,
		Services:       backend.Services,
		Sessions:       backend.Sessions,
		Operators:      backend.Operators,
		ContactLimiter: ratelimit.New(backend.Redis, "ratelimit:contact", cfg.Contact.Attempts, cfg.Contact.Window),
		LoginLimiter:   ratelimit.New(backend.Redis, "ratelimit:login", cfg.Security.LoginAttempts, cfg.Security.LoginWindow),
		Tasks:          producer,
		Checks:         backend.Checks(),
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if cfg.Reconcile.Enabled {
		scheduler = jobs.NewScheduler(producer, cfg.Reconcile.Schedule, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, backend)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, backend *app.Backend) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	backend.Close()
	logger.Info().Msg("server exited cleanly")
}

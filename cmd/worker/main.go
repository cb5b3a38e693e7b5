package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"playaway/internal/cache"
	"playaway/internal/config"
	"playaway/internal/log"
	"playaway/internal/notify"
	"playaway/internal/queue"
	"playaway/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	mailer := notify.NewHTTPMailer(cfg.Notify)
	processor := tasks.NewProcessor(mailer, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Notify.Stream,
		cfg.Notify.Group,
		cfg.Notify.Consumer,
		cfg.Notify.ClaimInterval,
		logger,
		processor,
	)
	if err := consumer.EnsureGroup(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("consumer group setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}

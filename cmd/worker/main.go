package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/InsightDrop/internal/app"
	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/logger"
	"github.com/dharsanguruparan/InsightDrop/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	flush := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
	defer flush()

	stores, pool, err := app.OpenStores(ctx, cfg)
	if err != nil {
		slog.Error("open stores", "error", err)
		flush()
		os.Exit(1)
	}
	defer pool.Close()
	pipe := app.NewPipeline(cfg, stores, app.NewAggregator(cfg, false))

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.ProcessingPool,
	})
	mux := worker.NewProcessor(pipe).Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	slog.Info("worker started", "concurrency", cfg.ProcessingPool)
	if err := server.Run(mux); err != nil {
		slog.Error("worker stopped", "error", err)
		pool.Close()
		flush()
		os.Exit(1)
	}
}

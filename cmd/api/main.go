package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/InsightDrop/internal/api"
	"github.com/dharsanguruparan/InsightDrop/internal/app"
	"github.com/dharsanguruparan/InsightDrop/internal/auth"
	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/logger"
	"github.com/dharsanguruparan/InsightDrop/internal/processing"
	"github.com/dharsanguruparan/InsightDrop/internal/queue"
	"github.com/dharsanguruparan/InsightDrop/internal/signing"
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

	if err := run(ctx, cfg); err != nil {
		slog.Error("api stopped", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	stores, pool, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	aggregator := app.NewAggregator(cfg, false)
	pipe := app.NewPipeline(cfg, stores, aggregator)

	var dispatcher queue.Dispatcher
	switch cfg.AnalysisMode {
	case config.ModeQueue:
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		dispatcher = queue.NewAsynqDispatcher(client)
	case config.ModeBackground:
		processor := processing.New(pipe, cfg.ProcessingPool)
		processor.Start(ctx)
		defer processor.Wait()
		dispatcher = processor
	}

	authSvc := auth.NewService(stores.Users, auth.Options{
		JWTSecret:          cfg.JWTSecret,
		JWTExpiry:          cfg.JWTExpiry,
		Production:         cfg.IsProduction(),
		AdminLogins:        cfg.AdminLogins,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		RedirectURL:        cfg.AppURL + "/auth/github/callback",
	})

	srv := api.New(api.Deps{
		Config:     cfg,
		Users:      stores.Users,
		Projects:   stores.Projects,
		Files:      stores.Files,
		Reports:    stores.Reports,
		Blobs:      stores.Blobs,
		Pipeline:   pipe,
		Aggregator: aggregator,
		Auth:       authSvc,
		Signer:     signing.NewSigner(cfg.SigningSecret),
		Dispatcher: dispatcher,
	})
	return srv.Run(ctx)
}

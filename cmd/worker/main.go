package main

import (
	"context"
	"log/slog"
	"os"

	"fauxpas-eval/internal/config"
	"fauxpas-eval/internal/db"
	"fauxpas-eval/internal/judge"
	"fauxpas-eval/internal/scoring"
	"fauxpas-eval/internal/storage"
	"fauxpas-eval/internal/telemetry"
	"fauxpas-eval/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := cfg.Logger().With("service", "fauxpas-worker")
	slog.SetDefault(log)

	shutdownTracing, err := telemetry.Setup(ctx, "fauxpas-worker", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	dbase, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbase.Close()

	j, err := judge.New(cfg.Judge, log)
	if err != nil {
		return err
	}
	repo := db.NewRepository(dbase, log)
	ws := &worker.Server{
		Scores: scoring.NewService(repo, j, scoring.Options{
			Logger:               log,
			MaxConcurrentStories: cfg.MaxConcurrentStories,
			JudgeTimeout:         cfg.Judge.CallBudget(),
			Runs:                 repo,
		}),
		Reports: repo,
		Log:     log,
	}
	if cfg.Storage.Enabled() {
		s3c, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		ws.Archive = s3c
	}
	return worker.Run(cfg.RedisAddr, cfg.WorkerConcurrency, ws)
}

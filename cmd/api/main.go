package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"fauxpas-eval/internal/config"
	"fauxpas-eval/internal/db"
	httpSrv "fauxpas-eval/internal/http"
	"fauxpas-eval/internal/judge"
	"fauxpas-eval/internal/migrations"
	"fauxpas-eval/internal/scoring"
	"fauxpas-eval/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := cfg.Logger().With("service", "fauxpas-api")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "fauxpas-api", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	dbase, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbase.Close()

	// Run embedded migrations (idempotent)
	if err := migrations.Up(dbase.DB, cfg.DBDriver); err != nil {
		return err
	}

	j, err := judge.New(cfg.Judge, log)
	if err != nil {
		return err
	}
	repo := db.NewRepository(dbase, log)
	svc := scoring.NewService(repo, j, scoring.Options{
		Logger:               log,
		MaxConcurrentStories: cfg.MaxConcurrentStories,
		JudgeTimeout:         cfg.Judge.CallBudget(),
		Runs:                 repo,
	})

	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asq.Close()

	srv := httpSrv.NewServer(&httpSrv.Server{
		Scores: svc,
		Store:  repo,
		Queue:  asq,
		DB:     dbase,
		Log:    log,
	}, cfg.HTTPAddr, cfg.APIToken)

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/paperbill/paperbill/internal/app"
	"github.com/paperbill/paperbill/internal/mail"
	"github.com/paperbill/paperbill/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dispatcher := mail.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:  asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:     logger,
		Dispatcher: dispatcher,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		worker.Shutdown()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Error("worker", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

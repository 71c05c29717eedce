package jobs

import (
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/paperbill/paperbill/internal/jobs"
	"github.com/paperbill/paperbill/internal/mail"
)

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts  asynq.RedisClientOpt
	Logger     *slog.Logger
	Dispatcher mail.Dispatcher
}

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) *Worker {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendInvoice, NewSendInvoiceHandler(cfg.Dispatcher, cfg.Logger, jobmetrics.NewMetrics(nil)))
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	w.logger.Info("worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the server gracefully.
func (w *Worker) Shutdown() {
	w.logger.Info("worker stopping")
	w.server.Shutdown()
}

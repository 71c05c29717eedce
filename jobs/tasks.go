// Package jobs defines the asynq task types the worker processes.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/paperbill/paperbill/internal/jobs"
	"github.com/paperbill/paperbill/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendInvoice delivers a rendered invoice by email.
	TaskTypeSendInvoice = "mail:send_invoice"
)

// NewSendInvoiceTask constructs an asynq task carrying the email payload.
func NewSendInvoiceTask(payload mail.Payload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendInvoice, data, asynq.MaxRetry(5), asynq.Queue(QueueDefault)), nil
}

// NewSendInvoiceHandler processes TaskTypeSendInvoice tasks with the given
// dispatcher. Transport failures return an error so asynq owns the retry
// policy; the API never retries sends itself.
func NewSendInvoiceHandler(dispatcher mail.Dispatcher, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload mail.Payload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("decode send invoice payload", slog.Any("error", err))
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskTypeSendInvoice)
		if err := tracker.End(dispatcher.Dispatch(ctx, payload)); err != nil {
			logger.Error("dispatch invoice email",
				slog.Any("error", err),
				slog.String("to", payload.To),
				slog.String("subject", payload.Subject))
			return err
		}
		logger.Info("invoice email dispatched",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
}

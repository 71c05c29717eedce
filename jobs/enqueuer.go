package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/paperbill/paperbill/internal/mail"
)

// Enqueuer pushes tasks onto the queue from the API side.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueInvoiceEmail queues one invoice email for delivery.
func (e *Enqueuer) EnqueueInvoiceEmail(ctx context.Context, payload mail.Payload) error {
	task, err := NewSendInvoiceTask(payload)
	if err != nil {
		return fmt.Errorf("jobs: build send invoice task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("jobs: enqueue send invoice: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/paperbill/paperbill/internal/jobs"
	"github.com/paperbill/paperbill/internal/mail"
)

type captureDispatcher struct {
	got  []mail.Payload
	fail error
}

func (d *captureDispatcher) Dispatch(ctx context.Context, payload mail.Payload) error {
	if d.fail != nil {
		return d.fail
	}
	d.got = append(d.got, payload)
	return nil
}

func TestSendInvoiceTaskRoundTrip(t *testing.T) {
	payload := mail.BuildInvoicePayload("a@b.c", "INV-1", "Acme", "", []byte("%PDF"))
	task, err := NewSendInvoiceTask(payload)
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendInvoice, task.Type())

	dispatcher := &captureDispatcher{}
	handler := NewSendInvoiceHandler(dispatcher, slog.Default(), testMetrics())
	require.NoError(t, handler(context.Background(), task))
	require.Len(t, dispatcher.got, 1)
	require.Equal(t, payload.To, dispatcher.got[0].To)
	require.Equal(t, payload.Attachment, dispatcher.got[0].Attachment)
}

func TestSendInvoiceHandlerPropagatesFailureForRetry(t *testing.T) {
	task, err := NewSendInvoiceTask(mail.Payload{To: "a@b.c", Subject: "s"})
	require.NoError(t, err)

	dispatcher := &captureDispatcher{fail: mail.ErrDeliveryFailed}
	handler := NewSendInvoiceHandler(dispatcher, slog.Default(), testMetrics())
	err = handler(context.Background(), task)
	require.ErrorIs(t, err, mail.ErrDeliveryFailed)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSendInvoiceHandlerSkipsRetryOnBadPayload(t *testing.T) {
	bad := asynq.NewTask(TaskTypeSendInvoice, []byte("not json"))
	handler := NewSendInvoiceHandler(&captureDispatcher{}, slog.Default(), testMetrics())
	require.ErrorIs(t, handler(context.Background(), bad), asynq.SkipRetry)

	data, err := json.Marshal(mail.Payload{To: "x@y.z"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), asynq.NewTask(TaskTypeSendInvoice, data)))
}

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

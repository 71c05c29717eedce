package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
)

// Dispatcher hands a payload to a mail transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload Payload) error
}

// SMTPDispatcher delivers payloads over plain SMTP (Mailpit locally, a
// relay in production).
type SMTPDispatcher struct {
	addr string
	from string
}

// NewSMTPDispatcher constructs a dispatcher for host:port.
func NewSMTPDispatcher(host string, port int, from string) *SMTPDispatcher {
	return &SMTPDispatcher{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Dispatch sends one email. Any transport error maps to ErrDeliveryFailed
// so callers see a stable kind; retrying is the job queue's decision.
func (d *SMTPDispatcher) Dispatch(ctx context.Context, payload Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := EncodeMessage(d.from, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if err := smtp.SendMail(d.addr, nil, d.from, []string{payload.To}, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// EncodeMessage renders the payload as a MIME message: multipart/mixed with
// an HTML part and, when present, a base64 PDF attachment.
func EncodeMessage(from string, payload Payload) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", payload.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", payload.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlPart, err := writer.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(payload.HTMLBody)); err != nil {
		return nil, err
	}

	if len(payload.Attachment) > 0 {
		attachHeader := textproto.MIMEHeader{}
		attachHeader.Set("Content-Type", "application/pdf")
		attachHeader.Set("Content-Transfer-Encoding", "base64")
		attachHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.AttachmentName))
		attachPart, err := writer.CreatePart(attachHeader)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(payload.Attachment)
		if _, err := attachPart.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

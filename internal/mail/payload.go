// Package mail assembles email payloads for invoice delivery. Assembly is
// pure data work; transport happens in the background worker.
package mail

import (
	"fmt"
	"html"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

// ErrDeliveryFailed reports that the mail collaborator could not deliver.
// The invoice is never marked sent on this path.
var ErrDeliveryFailed = fmt.Errorf("mail delivery failed: %w", httpx.ErrConflict)

// Payload is one ready-to-send transactional email. Attachment travels
// base64-encoded through the job queue.
type Payload struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTMLBody       string `json:"html_body"`
	AttachmentName string `json:"attachment_name,omitempty"`
	Attachment     []byte `json:"attachment,omitempty"`
}

// BuildInvoicePayload packages a rendered invoice for delivery. The bodyNote
// is the free-text message above the document, HTML-escaped like every other
// caller-supplied value; the PDF rides along as an attachment when present.
func BuildInvoicePayload(recipient, invoiceNumber, companyName, bodyNote string, pdf []byte) Payload {
	subject := fmt.Sprintf("Invoice %s from %s", invoiceNumber, companyName)
	if bodyNote == "" {
		bodyNote = fmt.Sprintf("Please find invoice %s attached.", invoiceNumber)
	}
	p := Payload{
		To:       recipient,
		Subject:  subject,
		HTMLBody: fmt.Sprintf("<p>%s</p>", html.EscapeString(bodyNote)),
	}
	if len(pdf) > 0 {
		p.AttachmentName = fmt.Sprintf("invoice-%s.pdf", invoiceNumber)
		p.Attachment = pdf
	}
	return p
}

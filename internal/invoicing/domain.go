package invoicing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

var (
	// ErrInvoiceNotFound reports a missing or foreign-owned invoice.
	ErrInvoiceNotFound = fmt.Errorf("invoice: %w", httpx.ErrNotFound)
	// ErrNumberTaken rejects a duplicate invoice number for the owner.
	ErrNumberTaken = fmt.Errorf("invoice number already in use: %w", httpx.ErrDuplicate)
	// ErrNotEditable rejects updates and deletes on invoices past draft.
	ErrNotEditable = fmt.Errorf("invoice is no longer a draft: %w", httpx.ErrConflict)
	// ErrNoLineItems rejects sending an invoice with nothing on it.
	ErrNoLineItems = fmt.Errorf("invoice has no line items: %w", httpx.ErrValidation)
	// ErrBadTransition rejects an illegal status change.
	ErrBadTransition = fmt.Errorf("illegal status transition: %w", httpx.ErrConflict)
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft InvoiceStatus = "DRAFT"
	StatusSent  InvoiceStatus = "SENT"
	StatusPaid  InvoiceStatus = "PAID"
	StatusVoid  InvoiceStatus = "VOID"
)

// LineItem is one ordered invoice line. Quantity and UnitPrice are decimals;
// the line total is always derived, never stored as authoritative.
type LineItem struct {
	ID          int64
	InvoiceID   int64
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Invoice model. Subtotal, tax and total are not fields on purpose: they are
// recomputed from the line items at render time.
type Invoice struct {
	ID             int64
	OwnerID        int64
	ClientID       int64
	Number         string
	IssueDate      time.Time
	DueDate        time.Time
	Currency       string
	TaxRatePercent decimal.Decimal
	Notes          string
	Terms          string
	Status         InvoiceStatus
	Items          []LineItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Totals holds the recomputed aggregates for one invoice.
type Totals struct {
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
}

// LineItemInput for creating or replacing invoice lines.
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// InvoiceInput for creating or updating invoices.
type InvoiceInput struct {
	ClientID       int64
	Number         string
	IssueDate      time.Time
	DueDate        time.Time
	Currency       string
	TaxRatePercent decimal.Decimal
	Notes          string
	Terms          string
	Items          []LineItemInput
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status   InvoiceStatus
	ClientID int64
	Page     int
	PerPage  int
}

// Package render builds invoice documents by substituting invoice data into
// stored HTML templates. Substitution is a closed-grammar token scan, never
// template-language evaluation, so stored templates cannot execute logic.
package render

import (
	"time"

	"github.com/shopspring/decimal"
)

// Input is the deterministic input for one document render. It is assembled
// fresh per request and discarded afterwards.
type Input struct {
	Company CompanyView
	Client  ClientView
	Invoice InvoiceView
	Items   []LineItemView
	Totals  TotalsView

	// Currency is the ISO 4217 code used for every money string.
	Currency string
	// Locale drives number grouping, e.g. "en-US" or "de-DE".
	Locale string
	// Timezone is the IANA zone dates are rendered in.
	Timezone string
}

// CompanyView carries the issuing company fields exposed to templates.
type CompanyView struct {
	Name     string
	Address  string
	City     string
	Postal   string
	Country  string
	LogoURL  string
	Email    string
	TaxID    string
}

// ClientView carries the billed client fields exposed to templates.
type ClientView struct {
	Name    string
	Address string
	City    string
	Postal  string
	Country string
	Email   string
}

// InvoiceView carries invoice header fields exposed to templates.
type InvoiceView struct {
	Number    string
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
	Terms     string
	Status    string
}

// LineItemView is one renderable invoice line.
type LineItemView struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// TotalsView carries the recomputed aggregates, never stored values.
type TotalsView struct {
	Subtotal       decimal.Decimal
	TaxRatePercent decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

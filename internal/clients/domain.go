// Package clients manages the billed-party records invoices reference.
package clients

import (
	"fmt"
	"time"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

var (
	// ErrClientNotFound reports a missing or foreign-owned client.
	ErrClientNotFound = fmt.Errorf("client: %w", httpx.ErrNotFound)
	// ErrClientInUse rejects deleting a client still referenced by invoices.
	ErrClientInUse = fmt.Errorf("client is referenced by invoices: %w", httpx.ErrConflict)
)

// Client model, exclusively owned by one user.
type Client struct {
	ID           int64
	OwnerID      int64
	Name         string
	AddressLine  string
	City         string
	PostalCode   string
	Country      string
	ContactEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClientInput for creating or updating clients.
type ClientInput struct {
	Name         string
	AddressLine  string
	City         string
	PostalCode   string
	Country      string
	ContactEmail string
}

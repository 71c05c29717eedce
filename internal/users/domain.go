// Package users manages accounts and the issuing-company profile that feeds
// rendered invoice documents.
package users

import (
	"fmt"
	"time"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

var (
	// ErrUserNotFound reports a missing account.
	ErrUserNotFound = fmt.Errorf("user: %w", httpx.ErrNotFound)
	// ErrEmailTaken rejects registration with an existing email.
	ErrEmailTaken = fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
)

// User model.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile carries the company fields stamped onto rendered documents plus
// the owner's formatting preferences.
type Profile struct {
	OwnerID     int64
	CompanyName string
	AddressLine string
	City        string
	PostalCode  string
	Country     string
	LogoURL     string
	TaxID       string
	Currency    string
	Locale      string
	Timezone    string
	// Email is the account email, read-only on the profile.
	Email       string
}

// RegisterInput for account creation.
type RegisterInput struct {
	Email       string
	Password    string
	CompanyName string
	Currency    string
	Locale      string
	Timezone    string
}

// ProfileInput for profile updates.
type ProfileInput struct {
	CompanyName string
	AddressLine string
	City        string
	PostalCode  string
	Country     string
	LogoURL     string
	TaxID       string
	Currency    string
	Locale      string
	Timezone    string
}

// SeedTemplate is the starter document template created with each account.
type SeedTemplate struct {
	Name        string
	Description string
	HTMLBody    string
	CSSBody     string
}

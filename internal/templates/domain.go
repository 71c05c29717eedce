// Package templates is the store for invoice document templates: named
// HTML+CSS pairs owned by one user, at most one flagged default per owner.
package templates

import (
	"fmt"
	"time"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

// ErrTemplateNotFound reports a missing or foreign-owned template. It wraps
// the generic not-found sentinel so the API never confirms existence across
// owners.
var ErrTemplateNotFound = fmt.Errorf("template: %w", httpx.ErrNotFound)

// Template model.
type Template struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	HTMLBody    string
	CSSBody     string
	IsDefault   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateInput for creating or updating templates.
type TemplateInput struct {
	Name        string
	Description string
	HTMLBody    string
	CSSBody     string
	IsDefault   bool
}

package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

// RepositoryPort defines data access for templates.
type RepositoryPort interface {
	Create(ctx context.Context, ownerID int64, input TemplateInput) (*Template, error)
	GetByID(ctx context.Context, ownerID, id int64) (*Template, error)
	GetDefault(ctx context.Context, ownerID int64) (*Template, error)
	List(ctx context.Context, ownerID int64) ([]Template, error)
	Update(ctx context.Context, ownerID, id int64, input TemplateInput) (*Template, error)
	Delete(ctx context.Context, ownerID, id int64) error
	SetDefault(ctx context.Context, ownerID, id int64) error
}

// Service handles template business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new template for the owner.
func (s *Service) Create(ctx context.Context, ownerID int64, input TemplateInput) (*Template, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ownerID, input)
}

// Get returns one template scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Template, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// List returns all templates owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID int64) ([]Template, error) {
	return s.repo.List(ctx, ownerID)
}

// Update replaces template fields, owner-scoped.
func (s *Service) Update(ctx context.Context, ownerID, id int64, input TemplateInput) (*Template, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, ownerID, id, input)
}

// Delete removes a template. Deleting the default is allowed; subsequent
// renders without an explicit template id fail with ErrTemplateNotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// SetDefault marks template id as the owner's default. The repository swap
// clears the previous default in the same transaction, preserving the
// at-most-one-default invariant under concurrent calls.
func (s *Service) SetDefault(ctx context.Context, ownerID, id int64) error {
	return s.repo.SetDefault(ctx, ownerID, id)
}

// Resolve picks the template to render with: the explicit id when given,
// otherwise the owner's default.
func (s *Service) Resolve(ctx context.Context, ownerID int64, templateID *int64) (*Template, error) {
	if templateID != nil {
		return s.repo.GetByID(ctx, ownerID, *templateID)
	}
	return s.repo.GetDefault(ctx, ownerID)
}

func validateInput(input TemplateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("template name is required: %w", httpx.ErrValidation)
	}
	if strings.TrimSpace(input.HTMLBody) == "" {
		return fmt.Errorf("template html body is required: %w", httpx.ErrValidation)
	}
	return nil
}

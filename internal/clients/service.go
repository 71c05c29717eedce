package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// RepositoryPort defines data access for clients.
type RepositoryPort interface {
	Create(ctx context.Context, ownerID int64, input ClientInput) (*Client, error)
	GetByID(ctx context.Context, ownerID, id int64) (*Client, error)
	List(ctx context.Context, ownerID int64, page, perPage int) ([]Client, int, error)
	Update(ctx context.Context, ownerID, id int64, input ClientInput) (*Client, error)
	Delete(ctx context.Context, ownerID, id int64) error
	CountInvoices(ctx context.Context, ownerID, id int64) (int, error)
}

// Service handles client business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create stores a new client for the owner.
func (s *Service) Create(ctx context.Context, ownerID int64, input ClientInput) (*Client, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("client name is required: %w", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, ownerID, input)
}

// Get returns one client scoped to the owner.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Client, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// List returns a page of the owner's clients.
func (s *Service) List(ctx context.Context, ownerID int64, page, perPage int) ([]Client, shared.Pagination, error) {
	items, total, err := s.repo.List(ctx, ownerID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Update replaces client fields, owner-scoped.
func (s *Service) Update(ctx context.Context, ownerID, id int64, input ClientInput) (*Client, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("client name is required: %w", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, ownerID, id, input)
}

// Delete removes a client unless invoices still reference it. Referenced
// clients are never deleted implicitly; the caller gets a conflict instead.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	n, err := s.repo.CountInvoices(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrClientInUse
	}
	return s.repo.Delete(ctx, ownerID, id)
}

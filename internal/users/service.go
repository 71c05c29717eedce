package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

// RepositoryPort defines data access for users and profiles.
type RepositoryPort interface {
	CreateUser(ctx context.Context, input RegisterInput, passwordHash string, seed SeedTemplate) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, ownerID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, ownerID int64, input ProfileInput) (*Profile, error)
}

// Service wraps account business rules.
type Service struct {
	repo RepositoryPort
	seed SeedTemplate
}

// NewService constructs a Service. The seed template is stamped into every
// new account as its default document template.
func NewService(repo RepositoryPort, seed SeedTemplate) *Service {
	return &Service{repo: repo, seed: seed}
}

// Register creates an account, its profile, and the seeded default template
// in one transaction.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || len(input.Password) < 8 {
		return nil, fmt.Errorf("email and a password of at least 8 characters are required: %w", httpx.ErrValidation)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if input.Locale == "" {
		input.Locale = "en"
	}
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, input, string(hash), s.seed)
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, httpx.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, httpx.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, httpx.ErrUnauthorized
	}
	return user, nil
}

// GetProfile returns the owner's company profile.
func (s *Service) GetProfile(ctx context.Context, ownerID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, ownerID)
}

// UpdateProfile replaces the owner's company profile fields.
func (s *Service) UpdateProfile(ctx context.Context, ownerID int64, input ProfileInput) (*Profile, error) {
	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, fmt.Errorf("company name is required: %w", httpx.ErrValidation)
	}
	return s.repo.UpdateProfile(ctx, ownerID, input)
}

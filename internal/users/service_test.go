package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

type memoryUserRepo struct {
	users    map[string]*User
	profiles map[int64]*Profile
	seeded   map[int64]SeedTemplate
	nextID   int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users:    make(map[string]*User),
		profiles: make(map[int64]*Profile),
		seeded:   make(map[int64]SeedTemplate),
	}
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, input RegisterInput, passwordHash string, seed SeedTemplate) (*User, error) {
	if _, exists := r.users[input.Email]; exists {
		return nil, ErrEmailTaken
	}
	r.nextID++
	u := &User{ID: r.nextID, Email: input.Email, PasswordHash: passwordHash, IsActive: true}
	r.users[input.Email] = u
	r.profiles[u.ID] = &Profile{
		OwnerID:     u.ID,
		CompanyName: input.CompanyName,
		Currency:    input.Currency,
		Locale:      input.Locale,
		Timezone:    input.Timezone,
	}
	r.seeded[u.ID] = seed
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) GetProfile(ctx context.Context, ownerID int64) (*Profile, error) {
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryUserRepo) UpdateProfile(ctx context.Context, ownerID int64, input ProfileInput) (*Profile, error) {
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, ErrUserNotFound
	}
	p.CompanyName = input.CompanyName
	p.Currency = input.Currency
	copied := *p
	return &copied, nil
}

var testSeed = SeedTemplate{Name: "Starter", HTMLBody: "<html>{{invoiceNumber}}</html>", CSSBody: "body{}"}

func TestRegisterSeedsDefaultTemplateAndProfile(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, testSeed)

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:       "Owner@Example.COM",
		Password:    "s3cret-pass",
		CompanyName: "Acme Studio",
	})
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", u.Email)

	require.Equal(t, testSeed, repo.seeded[u.ID])

	p, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Studio", p.CompanyName)
	require.Equal(t, "USD", p.Currency)
	require.Equal(t, "UTC", p.Timezone)

	// The stored hash is not the raw password.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testSeed)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "short"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, testSeed)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "correct-horse"})
	require.NoError(t, err)

	u, err := svc.Authenticate(context.Background(), "a@b.c", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "a@b.c", u.Email)

	_, err = svc.Authenticate(context.Background(), "a@b.c", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "nobody@b.c", "correct-horse")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

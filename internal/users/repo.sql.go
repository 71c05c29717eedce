package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperbill/paperbill/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for users and profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts the account, its profile, and the seeded default
// template in one transaction, so a registered user can always render.
func (r *Repository) CreateUser(ctx context.Context, input RegisterInput, passwordHash string, seed SeedTemplate) (*User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (email, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, true, now(), now()) RETURNING id, email, password_hash, is_active, created_at, updated_at`,
			input.Email, passwordHash).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO profiles (owner_id, company_name, currency, locale, timezone)
VALUES ($1, $2, $3, $4, $5)`, user.ID, input.CompanyName, input.Currency, input.Locale, input.Timezone); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO templates (owner_id, name, description, html_body, css_body, is_default, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, true, true, now(), now())`,
			user.ID, seed.Name, seed.Description, seed.HTMLBody, seed.CSSBody)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks an account up by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash, is_active, created_at, updated_at FROM users WHERE email=$1`, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

const profileColumns = `owner_id, company_name, address_line, city, postal_code, country, logo_url, tax_id, currency, locale, timezone,
(SELECT email FROM users WHERE users.id = profiles.owner_id) AS email`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.OwnerID, &p.CompanyName, &p.AddressLine, &p.City, &p.PostalCode, &p.Country, &p.LogoURL, &p.TaxID, &p.Currency, &p.Locale, &p.Timezone, &p.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the owner's company profile.
func (r *Repository) GetProfile(ctx context.Context, ownerID int64) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE owner_id=$1`, ownerID)
	return scanProfile(row)
}

// UpdateProfile replaces the owner's profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, ownerID int64, input ProfileInput) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `UPDATE profiles SET company_name=$2, address_line=$3, city=$4, postal_code=$5, country=$6, logo_url=$7, tax_id=$8, currency=$9, locale=$10, timezone=$11
WHERE owner_id=$1 RETURNING `+profileColumns,
		ownerID, input.CompanyName, input.AddressLine, input.City, input.PostalCode, input.Country, input.LogoURL, input.TaxID, input.Currency, input.Locale, input.Timezone)
	return scanProfile(row)
}

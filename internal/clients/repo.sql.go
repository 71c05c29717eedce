package clients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, owner_id, name, address_line, city, postal_code, country, contact_email, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for clients.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.AddressLine, &c.City, &c.PostalCode, &c.Country, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, ownerID int64, input ClientInput) (*Client, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO clients (owner_id, name, address_line, city, postal_code, country, contact_email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now()) RETURNING `+clientColumns,
		ownerID, input.Name, input.AddressLine, input.City, input.PostalCode, input.Country, input.ContactEmail)
	return scanClient(row)
}

// GetByID returns one client scoped to the owner.
func (r *Repository) GetByID(ctx context.Context, ownerID, id int64) (*Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id=$1 AND id=$2`, ownerID, id)
	return scanClient(row)
}

// List returns a page of the owner's clients plus the total count.
func (r *Repository) List(ctx context.Context, ownerID int64, page, perPage int) ([]Client, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM clients WHERE owner_id=$1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE owner_id=$1 ORDER BY name, id LIMIT $2 OFFSET $3`,
		ownerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.AddressLine, &c.City, &c.PostalCode, &c.Country, &c.ContactEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update replaces client fields, owner-scoped.
func (r *Repository) Update(ctx context.Context, ownerID, id int64, input ClientInput) (*Client, error) {
	row := r.pool.QueryRow(ctx, `UPDATE clients SET name=$3, address_line=$4, city=$5, postal_code=$6, country=$7, contact_email=$8, updated_at=now()
WHERE owner_id=$1 AND id=$2 RETURNING `+clientColumns,
		ownerID, id, input.Name, input.AddressLine, input.City, input.PostalCode, input.Country, input.ContactEmail)
	return scanClient(row)
}

// Delete removes a client owned by ownerID.
func (r *Repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE owner_id=$1 AND id=$2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

// CountInvoices reports how many invoices reference the client.
func (r *Repository) CountInvoices(ctx context.Context, ownerID, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM invoices WHERE owner_id=$1 AND client_id=$2`, ownerID, id).Scan(&n)
	return n, err
}

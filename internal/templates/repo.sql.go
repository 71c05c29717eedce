package templates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperbill/paperbill/internal/platform/db"
)

const templateColumns = `id, owner_id, name, description, html_body, css_body, is_default, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for templates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.HTMLBody, &t.CSSBody, &t.IsDefault, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a template. When the input is flagged default the previous
// default is cleared inside the same transaction.
func (r *Repository) Create(ctx context.Context, ownerID int64, input TemplateInput) (*Template, error) {
	var created *Template
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if input.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE templates SET is_default=false, updated_at=now() WHERE owner_id=$1 AND is_default`, ownerID); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `INSERT INTO templates (owner_id, name, description, html_body, css_body, is_default, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, true, now(), now()) RETURNING `+templateColumns,
			ownerID, input.Name, input.Description, input.HTMLBody, input.CSSBody, input.IsDefault)
		t, err := scanTemplate(row)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns one template scoped to the owner.
func (r *Repository) GetByID(ctx context.Context, ownerID, id int64) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE owner_id=$1 AND id=$2 AND is_active`, ownerID, id)
	return scanTemplate(row)
}

// GetDefault returns the owner's default template.
func (r *Repository) GetDefault(ctx context.Context, ownerID int64) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE owner_id=$1 AND is_default AND is_active`, ownerID)
	return scanTemplate(row)
}

// List returns all active templates owned by ownerID.
func (r *Repository) List(ctx context.Context, ownerID int64) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM templates WHERE owner_id=$1 AND is_active ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.HTMLBody, &t.CSSBody, &t.IsDefault, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of a template, owner-scoped.
func (r *Repository) Update(ctx context.Context, ownerID, id int64, input TemplateInput) (*Template, error) {
	var updated *Template
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if input.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE templates SET is_default=false, updated_at=now() WHERE owner_id=$1 AND is_default AND id<>$2`, ownerID, id); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `UPDATE templates SET name=$3, description=$4, html_body=$5, css_body=$6, is_default=$7, updated_at=now()
WHERE owner_id=$1 AND id=$2 AND is_active RETURNING `+templateColumns,
			ownerID, id, input.Name, input.Description, input.HTMLBody, input.CSSBody, input.IsDefault)
		t, err := scanTemplate(row)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a template owned by ownerID.
func (r *Repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE owner_id=$1 AND id=$2`, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// SetDefault atomically moves the default flag to template id. Both updates
// run in one RepeatableRead transaction so two concurrent swaps cannot leave
// two defaults behind.
func (r *Repository) SetDefault(ctx context.Context, ownerID, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE templates SET is_default=false, updated_at=now() WHERE owner_id=$1 AND is_default AND id<>$2`, ownerID, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE templates SET is_default=true, updated_at=now() WHERE owner_id=$1 AND id=$2 AND is_active`, ownerID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrTemplateNotFound
		}
		return nil
	})
}

package invoicing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperbill/paperbill/internal/platform/db"
)

const invoiceColumns = `id, owner_id, client_id, number, issue_date, due_date, currency, tax_rate, notes, terms, status, created_at, updated_at`

const itemColumns = `id, invoice_id, position, description, quantity, unit_price`

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.ClientID, &inv.Number, &inv.IssueDate, &inv.DueDate,
		&inv.Currency, &inv.TaxRatePercent, &inv.Notes, &inv.Terms, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []LineItemInput) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	for i, item := range items {
		var li LineItem
		err := tx.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5) RETURNING `+itemColumns,
			invoiceID, i+1, item.Description, item.Quantity, item.UnitPrice).
			Scan(&li.ID, &li.InvoiceID, &li.Position, &li.Description, &li.Quantity, &li.UnitPrice)
		if err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, nil
}

func (r *Repository) loadItems(ctx context.Context, invoiceID int64) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM invoice_items WHERE invoice_id=$1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Position, &li.Description, &li.Quantity, &li.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// Create inserts an invoice and its ordered line items in one transaction.
func (r *Repository) Create(ctx context.Context, ownerID int64, input InvoiceInput) (*Invoice, error) {
	var created *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO invoices (owner_id, client_id, number, issue_date, due_date, currency, tax_rate, notes, terms, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now()) RETURNING `+invoiceColumns,
			ownerID, input.ClientID, input.Number, input.IssueDate, input.DueDate,
			input.Currency, input.TaxRatePercent, input.Notes, input.Terms, StatusDraft)
		inv, err := scanInvoice(row)
		if err != nil {
			return err
		}
		inv.Items, err = insertItems(ctx, tx, inv.ID, input.Items)
		if err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrNumberTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID returns one invoice with its line items, owner-scoped.
func (r *Repository) GetByID(ctx context.Context, ownerID, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE owner_id=$1 AND id=$2`, ownerID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	inv.Items, err = r.loadItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns a page of invoice headers plus the total count. Line items are
// not loaded for listings.
func (r *Repository) List(ctx context.Context, ownerID int64, filter ListFilter) ([]Invoice, int, error) {
	page, perPage := filter.Page, filter.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	where := `WHERE owner_id=$1`
	args := []any{ownerID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += ` AND status=$2`
	}
	if filter.ClientID != 0 {
		args = append(args, filter.ClientID)
		where += ` AND client_id=$` + strconv.Itoa(len(args))
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM invoices `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices `+where+
		` ORDER BY issue_date DESC, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.OwnerID, &inv.ClientID, &inv.Number, &inv.IssueDate, &inv.DueDate,
			&inv.Currency, &inv.TaxRatePercent, &inv.Notes, &inv.Terms, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// Update replaces invoice fields and all line items in one transaction.
func (r *Repository) Update(ctx context.Context, ownerID, id int64, input InvoiceInput) (*Invoice, error) {
	var updated *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE invoices SET client_id=$3, number=$4, issue_date=$5, due_date=$6, currency=$7, tax_rate=$8, notes=$9, terms=$10, updated_at=now()
WHERE owner_id=$1 AND id=$2 RETURNING `+invoiceColumns,
			ownerID, id, input.ClientID, input.Number, input.IssueDate, input.DueDate,
			input.Currency, input.TaxRatePercent, input.Notes, input.Terms)
		inv, err := scanInvoice(row)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id=$1`, inv.ID); err != nil {
			return err
		}
		inv.Items, err = insertItems(ctx, tx, inv.ID, input.Items)
		if err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrNumberTaken
		}
		return nil, err
	}
	return updated, nil
}

// UpdateStatus flips the invoice status, owner-scoped.
func (r *Repository) UpdateStatus(ctx context.Context, ownerID, id int64, status InvoiceStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status=$3, updated_at=now() WHERE owner_id=$1 AND id=$2`, ownerID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// Delete removes an invoice and its items.
func (r *Repository) Delete(ctx context.Context, ownerID, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE owner_id=$1 AND id=$2)`, ownerID, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE owner_id=$1 AND id=$2`, ownerID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInvoiceNotFound
		}
		return nil
	})
}

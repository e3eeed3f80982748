package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturacao/facturacao/internal/platform/db"
	"github.com/facturacao/facturacao/internal/platform/httpx"
	"github.com/facturacao/facturacao/internal/shared"
)

// Repository is the storage port for the invoice aggregate. WithTx runs fn
// against a repository bound to a single transaction; all multi-row writes go
// through it.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, invoiceNumber string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, invoiceNumber string, updates map[string]interface{}) error
	DeleteInvoice(ctx context.Context, invoiceNumber string) error
	ListItems(ctx context.Context, invoiceNumber string) ([]InvoiceItem, error)
	GetItem(ctx context.Context, invoiceNumber string, itemID int64) (*InvoiceItem, error)
	InsertItem(ctx context.Context, item InvoiceItem) (int64, error)
	UpdateItem(ctx context.Context, item InvoiceItem) error
	DeleteItem(ctx context.Context, invoiceNumber string, itemID int64) error
	DeleteItems(ctx context.Context, invoiceNumber string) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceColumns = `id, invoice_number, client_name, client_address, client_phone_number, client_nuit,
	invoice_type, invoice_status, invoice_paid_amount, invoice_pending_amount,
	invoice_discount_amount, invoice_transshipment_amount, invoice_taxes_amount,
	invoice_subtotal_amount, invoice_total_amount,
	invoice_operation_date, invoice_payment_date, invoice_notes,
	system_user, system_attendant, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientAddress, &inv.ClientPhoneNumber, &inv.ClientNUIT,
		&inv.Type, &inv.Status, &inv.PaidAmount, &inv.PendingAmount,
		&inv.DiscountAmount, &inv.TransshipmentAmount, &inv.TaxesAmount,
		&inv.SubtotalAmount, &inv.TotalAmount,
		&inv.OperationDate, &inv.PaymentDate, &inv.Notes,
		&inv.SystemUser, &inv.SystemAttendant, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE invoice_number = $1", invoiceColumns)
	return scanInvoice(r.db.QueryRow(ctx, query, invoiceNumber))
}

// GetInvoiceForUpdate locks the invoice header row for the remainder of the
// surrounding transaction, serializing concurrent read-modify-write sequences
// on the same aggregate.
func (r *repository) GetInvoiceForUpdate(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE invoice_number = $1 FOR UPDATE", invoiceColumns)
	return scanInvoice(r.db.QueryRow(ctx, query, invoiceNumber))
}

func (r *repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != "" {
		term := "%" + shared.FoldSearchTerm(req.Search) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(unaccent(lower(invoice_number)) LIKE $%d OR unaccent(lower(client_name)) LIKE $%d OR unaccent(lower(coalesce(client_nuit, ''))) LIKE $%d)",
			argPos, argPos, argPos))
		args = append(args, term)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := ""
	for i, cond := range conditions {
		if i == 0 {
			whereClause = "WHERE " + cond
		} else {
			whereClause += " AND " + cond
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *repository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	query := `
		INSERT INTO invoices (
			invoice_number, client_name, client_address, client_phone_number, client_nuit,
			invoice_type, invoice_status, invoice_paid_amount, invoice_pending_amount,
			invoice_discount_amount, invoice_transshipment_amount, invoice_taxes_amount,
			invoice_subtotal_amount, invoice_total_amount,
			invoice_operation_date, invoice_payment_date, invoice_notes,
			system_user, system_attendant
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		inv.InvoiceNumber, inv.ClientName, inv.ClientAddress, inv.ClientPhoneNumber, inv.ClientNUIT,
		inv.Type, inv.Status, inv.PaidAmount, inv.PendingAmount,
		inv.DiscountAmount, inv.TransshipmentAmount, inv.TaxesAmount,
		inv.SubtotalAmount, inv.TotalAmount,
		inv.OperationDate, inv.PaymentDate, inv.Notes,
		inv.SystemUser, inv.SystemAttendant,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	return id, nil
}

func (r *repository) UpdateInvoice(ctx context.Context, invoiceNumber string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE invoices SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range invoiceUpdateColumns {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE invoice_number = $%d", argPos)
	args = append(args, invoiceNumber)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapConstraintError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice: %w", httpx.ErrNotFound)
	}
	return nil
}

// invoiceUpdateColumns fixes the set and order of patchable columns so the
// generated UPDATE statement is deterministic.
var invoiceUpdateColumns = []string{
	"client_name", "client_address", "client_phone_number", "client_nuit",
	"invoice_type", "invoice_status",
	"invoice_paid_amount", "invoice_pending_amount",
	"invoice_discount_amount", "invoice_transshipment_amount", "invoice_taxes_amount",
	"invoice_subtotal_amount", "invoice_total_amount",
	"invoice_operation_date", "invoice_payment_date", "invoice_notes",
	"system_user", "system_attendant",
}

func (r *repository) DeleteInvoice(ctx context.Context, invoiceNumber string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM invoices WHERE invoice_number = $1", invoiceNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice: %w", httpx.ErrNotFound)
	}
	return nil
}

const itemColumns = `id, invoice_number, name, description, price, quantity, discount_percent, total, created_at, updated_at`

func scanItem(row pgx.Row) (*InvoiceItem, error) {
	var item InvoiceItem
	err := row.Scan(
		&item.ID, &item.InvoiceNumber, &item.Name, &item.Description,
		&item.Price, &item.Quantity, &item.DiscountPercent, &item.Total,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice item: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, invoiceNumber string) ([]InvoiceItem, error) {
	query := fmt.Sprintf("SELECT %s FROM invoice_items WHERE invoice_number = $1 ORDER BY created_at ASC, id ASC", itemColumns)
	rows, err := r.db.Query(ctx, query, invoiceNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem looks an item up scoped by invoice: an id that exists under a
// different invoice is reported as not found.
func (r *repository) GetItem(ctx context.Context, invoiceNumber string, itemID int64) (*InvoiceItem, error) {
	query := fmt.Sprintf("SELECT %s FROM invoice_items WHERE invoice_number = $1 AND id = $2", itemColumns)
	return scanItem(r.db.QueryRow(ctx, query, invoiceNumber, itemID))
}

func (r *repository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	query := `
		INSERT INTO invoice_items (invoice_number, name, description, price, quantity, discount_percent, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		item.InvoiceNumber, item.Name, item.Description,
		item.Price, item.Quantity, item.DiscountPercent, item.Total,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	return id, nil
}

func (r *repository) UpdateItem(ctx context.Context, item InvoiceItem) error {
	query := `
		UPDATE invoice_items
		SET name = $1, description = $2, price = $3, quantity = $4, discount_percent = $5, total = $6, updated_at = NOW()
		WHERE invoice_number = $7 AND id = $8`

	tag, err := r.db.Exec(ctx, query,
		item.Name, item.Description, item.Price, item.Quantity, item.DiscountPercent, item.Total,
		item.InvoiceNumber, item.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice item: %w", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, invoiceNumber string, itemID int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_number = $1 AND id = $2", invoiceNumber, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice item: %w", httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, invoiceNumber string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_number = $1", invoiceNumber)
	return err
}

// mapConstraintError converts Postgres unique violations into the duplicate
// sentinel so callers can surface them as client errors.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, httpx.ErrDuplicate)
	}
	return err
}

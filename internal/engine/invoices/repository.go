package invoices

import (
	"database/sql"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, org_id, client_id, number, status, subtotal, tax, total, issued_date, due_date, paid_at, created_at, updated_at`

func (r *Repository) Create(inv *Invoice) error {
	_, err := r.db.Exec(`
		INSERT INTO invoices (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.OrganizationID, inv.ClientID, inv.Number, inv.Status, inv.Subtotal, inv.Tax,
		inv.Total, inv.IssuedDate, inv.DueDate, inv.PaidAt, inv.CreatedAt, inv.UpdatedAt)
	return err
}

func scanInvoice(s interface{ Scan(dest ...interface{}) error }) (*Invoice, error) {
	inv := &Invoice{}
	err := s.Scan(&inv.ID, &inv.OrganizationID, &inv.ClientID, &inv.Number, &inv.Status,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.IssuedDate, &inv.DueDate, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *Repository) GetByID(id string) (*Invoice, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM invoices WHERE id = ?`, id)
	return scanInvoice(row)
}

func (r *Repository) List(orgID, status, clientID string, limit, offset int) ([]*Invoice, error) {
	query := `SELECT ` + columns + ` FROM invoices WHERE org_id = ?`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *Repository) Update(inv *Invoice) error {
	inv.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE invoices SET number = ?, status = ?, subtotal = ?, tax = ?, total = ?,
			issued_date = ?, due_date = ?, paid_at = ?, updated_at = ?
		WHERE id = ?
	`, inv.Number, inv.Status, inv.Subtotal, inv.Tax, inv.Total, inv.IssuedDate, inv.DueDate,
		inv.PaidAt, inv.UpdatedAt, inv.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM invoice_line_items WHERE invoice_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM invoices WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Line items

const lineItemColumns = `id, invoice_id, description, quantity, unit_price, total, sort_order, created_at, updated_at`

func (r *Repository) CreateLineItem(item *LineItem) error {
	_, err := r.db.Exec(`
		INSERT INTO invoice_line_items (`+lineItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total,
		item.SortOrder, item.CreatedAt, item.UpdatedAt)
	return err
}

func (r *Repository) GetLineItemByID(id string) (*LineItem, error) {
	item := &LineItem{}
	err := r.db.QueryRow(`SELECT `+lineItemColumns+` FROM invoice_line_items WHERE id = ?`, id).
		Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice,
			&item.Total, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *Repository) ListLineItems(invoiceID string) ([]*LineItem, error) {
	rows, err := r.db.Query(`
		SELECT `+lineItemColumns+` FROM invoice_line_items
		WHERE invoice_id = ? ORDER BY sort_order ASC, created_at ASC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		item := &LineItem{}
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Total, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) UpdateLineItem(item *LineItem) error {
	item.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE invoice_line_items SET description = ?, quantity = ?, unit_price = ?, total = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
	`, item.Description, item.Quantity, item.UnitPrice, item.Total, item.SortOrder, item.UpdatedAt, item.ID)
	return err
}

func (r *Repository) DeleteLineItem(id string) error {
	_, err := r.db.Exec(`DELETE FROM invoice_line_items WHERE id = ?`, id)
	return err
}

func (r *Repository) MaxSortOrder(invoiceID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRow(`SELECT MAX(sort_order) FROM invoice_line_items WHERE invoice_id = ?`, invoiceID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *Repository) SetSortOrders(invoiceID string, order map[string]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for id, sortOrder := range order {
		if _, err := tx.Exec(`
			UPDATE invoice_line_items SET sort_order = ?, updated_at = ? WHERE id = ? AND invoice_id = ?
		`, sortOrder, now, id, invoiceID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Used by the payments engine and the stats layer.

func (r *Repository) InvoiceOrgAndTotal(invoiceID string) (string, float64, bool, error) {
	var orgID string
	var total float64
	err := r.db.QueryRow(`SELECT org_id, total FROM invoices WHERE id = ?`, invoiceID).Scan(&orgID, &total)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", 0, false, nil
		}
		return "", 0, false, err
	}
	return orgID, total, true, nil
}

func (r *Repository) MarkInvoicePaid(invoiceID string, paidAt int64) error {
	_, err := r.db.Exec(`UPDATE invoices SET status = 'paid', paid_at = ?, updated_at = ? WHERE id = ?`, paidAt, time.Now().Unix(), invoiceID)
	return err
}

// SweepOverdue flips sent invoices past their due date to overdue and returns
// the number of rows touched.
func (r *Repository) SweepOverdue(now int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE invoices SET status = 'overdue', updated_at = ?
		WHERE status = 'sent' AND due_date IS NOT NULL AND due_date < ?
	`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

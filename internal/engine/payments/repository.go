package payments

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

const columns = `id, org_id, invoice_id, amount, status, public_token, sort_order, due_date, paid_at, stripe_session_id, stripe_payment_intent_id, created_at, updated_at`

func scanPayment(s interface{ Scan(dest ...interface{}) error }) (*Payment, error) {
	p := &Payment{}
	err := s.Scan(&p.ID, &p.OrganizationID, &p.InvoiceID, &p.Amount, &p.Status, &p.PublicToken,
		&p.SortOrder, &p.DueDate, &p.PaidAt, &p.StripeSessionID, &p.StripePaymentIntentID,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(id string) (*Payment, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

func (r *Repository) GetByPublicToken(token string) (*Payment, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM payments WHERE public_token = ?`, token)
	return scanPayment(row)
}

func (r *Repository) ExistsByPublicToken(token string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM payments WHERE public_token = ?`, token).Scan(&count)
	return count > 0, err
}

func (r *Repository) ListByInvoice(invoiceID string) ([]*Payment, error) {
	rows, err := r.db.Query(`
		SELECT `+columns+` FROM payments WHERE invoice_id = ?
		ORDER BY sort_order ASC, created_at ASC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *Repository) List(orgID, status string, limit, offset int) ([]*Payment, error) {
	query := `SELECT ` + columns + ` FROM payments WHERE org_id = ?`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *Repository) Update(p *Payment) error {
	p.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE payments SET amount = ?, status = ?, sort_order = ?, due_date = ?, paid_at = ?,
			stripe_session_id = ?, stripe_payment_intent_id = ?, updated_at = ?
		WHERE id = ?
	`, p.Amount, p.Status, p.SortOrder, p.DueDate, p.PaidAt, p.StripeSessionID,
		p.StripePaymentIntentID, p.UpdatedAt, p.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM payments WHERE id = ?`, id)
	return err
}

// Replace swaps out the non-paid payments of an invoice for the given rows in
// one transaction. Paid rows are never touched here.
func (r *Repository) Replace(invoiceID string, payments []*Payment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM payments WHERE invoice_id = ? AND status != 'paid'`, invoiceID); err != nil {
		return err
	}
	for _, p := range payments {
		if _, err := tx.Exec(`
			INSERT INTO payments (`+columns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.OrganizationID, p.InvoiceID, p.Amount, p.Status, p.PublicToken, p.SortOrder,
			p.DueDate, p.PaidAt, p.StripeSessionID, p.StripePaymentIntentID, p.CreatedAt, p.UpdatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) AllPaid(invoiceID string) (bool, error) {
	var unpaid int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM payments WHERE invoice_id = ? AND status != 'paid'`, invoiceID).Scan(&unpaid)
	if err != nil {
		return false, err
	}
	return unpaid == 0, nil
}

// SweepOverdue flips sent payments past their due date to overdue. Used by the
// background worker.
func (r *Repository) SweepOverdue(now int64) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE payments SET status = 'overdue', updated_at = ?
		WHERE status = 'sent' AND due_date IS NOT NULL AND due_date < ?
	`, now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

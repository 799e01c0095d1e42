package quotes

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

const columns = `id, org_id, client_id, title, status, subtotal, tax, total, approved_at, created_at, updated_at`

func (r *Repository) Create(q *Quote) error {
	_, err := r.db.Exec(`
		INSERT INTO quotes (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.OrganizationID, q.ClientID, q.Title, q.Status, q.Subtotal, q.Tax, q.Total,
		q.ApprovedAt, q.CreatedAt, q.UpdatedAt)
	return err
}

func scanQuote(s interface{ Scan(dest ...interface{}) error }) (*Quote, error) {
	q := &Quote{}
	err := s.Scan(&q.ID, &q.OrganizationID, &q.ClientID, &q.Title, &q.Status,
		&q.Subtotal, &q.Tax, &q.Total, &q.ApprovedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return q, nil
}

func (r *Repository) GetByID(id string) (*Quote, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM quotes WHERE id = ?`, id)
	return scanQuote(row)
}

func (r *Repository) List(orgID, status, clientID string, limit, offset int) ([]*Quote, error) {
	query := `SELECT ` + columns + ` FROM quotes WHERE org_id = ?`
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

	var quotes []*Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (r *Repository) Update(q *Quote) error {
	q.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE quotes SET title = ?, status = ?, subtotal = ?, tax = ?, total = ?,
			approved_at = ?, updated_at = ?
		WHERE id = ?
	`, q.Title, q.Status, q.Subtotal, q.Tax, q.Total, q.ApprovedAt, q.UpdatedAt, q.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM quote_line_items WHERE quote_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM quotes WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Line items

const lineItemColumns = `id, quote_id, description, quantity, rate, amount, sort_order, created_at, updated_at`

func (r *Repository) CreateLineItem(item *LineItem) error {
	_, err := r.db.Exec(`
		INSERT INTO quote_line_items (`+lineItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.QuoteID, item.Description, item.Quantity, item.Rate, item.Amount,
		item.SortOrder, item.CreatedAt, item.UpdatedAt)
	return err
}

func (r *Repository) GetLineItemByID(id string) (*LineItem, error) {
	item := &LineItem{}
	err := r.db.QueryRow(`SELECT `+lineItemColumns+` FROM quote_line_items WHERE id = ?`, id).
		Scan(&item.ID, &item.QuoteID, &item.Description, &item.Quantity, &item.Rate,
			&item.Amount, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *Repository) ListLineItems(quoteID string) ([]*LineItem, error) {
	rows, err := r.db.Query(`
		SELECT `+lineItemColumns+` FROM quote_line_items
		WHERE quote_id = ? ORDER BY sort_order ASC, created_at ASC
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		item := &LineItem{}
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.Description, &item.Quantity,
			&item.Rate, &item.Amount, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) UpdateLineItem(item *LineItem) error {
	item.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE quote_line_items SET description = ?, quantity = ?, rate = ?, amount = ?, sort_order = ?, updated_at = ?
		WHERE id = ?
	`, item.Description, item.Quantity, item.Rate, item.Amount, item.SortOrder, item.UpdatedAt, item.ID)
	return err
}

func (r *Repository) DeleteLineItem(id string) error {
	_, err := r.db.Exec(`DELETE FROM quote_line_items WHERE id = ?`, id)
	return err
}

func (r *Repository) MaxSortOrder(quoteID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRow(`SELECT MAX(sort_order) FROM quote_line_items WHERE quote_id = ?`, quoteID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *Repository) SetSortOrders(quoteID string, order map[string]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for id, sortOrder := range order {
		if _, err := tx.Exec(`
			UPDATE quote_line_items SET sort_order = ?, updated_at = ? WHERE id = ? AND quote_id = ?
		`, sortOrder, now, id, quoteID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

package stats

import (
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Event tables the reducers read. Hard-coded so no caller input ever reaches
// the query text.
var eventColumns = map[string]string{
	"clients":  "created_at",
	"projects": "created_at",
	"quotes":   "created_at",
	"invoices": "created_at",
	"tasks":    "created_at",
}

func (r *Repository) countInRange(table, column, orgID string, from, to int64) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = ? AND %s >= ? AND %s < ?`, table, column, column)
	err := r.db.QueryRow(query, orgID, from, to).Scan(&count)
	return count, err
}

func (r *Repository) countBefore(table, column, orgID string, before int64) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE org_id = ? AND %s < ?`, table, column)
	err := r.db.QueryRow(query, orgID, before).Scan(&count)
	return count, err
}

func (r *Repository) CountClientsCreated(orgID string, from, to int64) (int, error) {
	return r.countInRange("clients", "created_at", orgID, from, to)
}

func (r *Repository) CountProjectsCompleted(orgID string, from, to int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM projects
		WHERE org_id = ? AND status = 'completed' AND completed_at >= ? AND completed_at < ?
	`, orgID, from, to).Scan(&count)
	return count, err
}

func (r *Repository) CountQuotesApproved(orgID string, from, to int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM quotes
		WHERE org_id = ? AND status = 'approved' AND approved_at >= ? AND approved_at < ?
	`, orgID, from, to).Scan(&count)
	return count, err
}

func (r *Repository) CountInvoicesPaid(orgID string, from, to int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM invoices
		WHERE org_id = ? AND status = 'paid' AND paid_at >= ? AND paid_at < ?
	`, orgID, from, to).Scan(&count)
	return count, err
}

func (r *Repository) RevenuePaid(orgID string, from, to int64) (float64, error) {
	var revenue sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT SUM(total) FROM invoices
		WHERE org_id = ? AND status = 'paid' AND paid_at >= ? AND paid_at < ?
	`, orgID, from, to).Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return revenue.Float64, nil
}

func (r *Repository) HasAny(table, orgID string) (bool, error) {
	if _, ok := eventColumns[table]; !ok {
		return false, fmt.Errorf("unknown stats table: %s", table)
	}
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM (SELECT 1 FROM %s WHERE org_id = ? LIMIT 1)`, table)
	err := r.db.QueryRow(query, orgID).Scan(&count)
	return count > 0, err
}

// CreationTimestamps returns creation times inside the range; callers bucket
// them by day in the org timezone.
func (r *Repository) CreationTimestamps(table, orgID string, from, to int64) ([]int64, error) {
	column, ok := eventColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown stats table: %s", table)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE org_id = ? AND %s >= ? AND %s < ? ORDER BY %s ASC`,
		column, table, column, column, column)

	rows, err := r.db.Query(query, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var timestamps []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, rows.Err()
}

func (r *Repository) CountCreatedBefore(table, orgID string, before int64) (int, error) {
	column, ok := eventColumns[table]
	if !ok {
		return 0, fmt.Errorf("unknown stats table: %s", table)
	}
	return r.countBefore(table, column, orgID, before)
}

type revenueEvent struct {
	At    int64
	Total float64
}

func (r *Repository) PaidInvoiceEvents(orgID string, from, to int64) ([]revenueEvent, error) {
	rows, err := r.db.Query(`
		SELECT paid_at, total FROM invoices
		WHERE org_id = ? AND status = 'paid' AND paid_at >= ? AND paid_at < ?
		ORDER BY paid_at ASC
	`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []revenueEvent
	for rows.Next() {
		var e revenueEvent
		if err := rows.Scan(&e.At, &e.Total); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) CountPaidInvoicesBefore(orgID string, before int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM invoices WHERE org_id = ? AND status = 'paid' AND paid_at < ?
	`, orgID, before).Scan(&count)
	return count, err
}

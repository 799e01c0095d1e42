package notifications

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

const columns = `id, org_id, user_id, title, message, kind, scheduled_for, read_at, created_at, updated_at`

func (r *Repository) Create(n *Notification) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.OrganizationID, n.UserID, n.Title, n.Message, n.Kind, n.ScheduledFor, n.ReadAt,
		n.CreatedAt, n.UpdatedAt)
	return err
}

func scanNotification(s interface{ Scan(dest ...interface{}) error }) (*Notification, error) {
	n := &Notification{}
	err := s.Scan(&n.ID, &n.OrganizationID, &n.UserID, &n.Title, &n.Message, &n.Kind,
		&n.ScheduledFor, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (r *Repository) GetByID(id string) (*Notification, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

func (r *Repository) List(orgID, userID string, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	query := `SELECT ` + columns + ` FROM notifications WHERE org_id = ?`
	args := []interface{}{orgID}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) Update(n *Notification) error {
	n.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE notifications SET title = ?, message = ?, kind = ?, scheduled_for = ?, read_at = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Message, n.Kind, n.ScheduledFor, n.ReadAt, n.UpdatedAt, n.ID)
	return err
}

func (r *Repository) MarkAllRead(orgID, userID string, readAt int64) (int64, error) {
	query := `UPDATE notifications SET read_at = ?, updated_at = ? WHERE org_id = ? AND read_at IS NULL`
	args := []interface{}{readAt, readAt, orgID}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	res, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	return err
}

package emails

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

const columns = `id, org_id, client_id, thread_id, direction, subject, body, from_address, to_address, status, sent_at, created_at, updated_at`

func (r *Repository) Create(m *Message) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO email_messages (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.OrganizationID, m.ClientID, m.ThreadID, m.Direction, m.Subject, m.Body,
		m.FromAddress, m.ToAddress, m.Status, m.SentAt, m.CreatedAt, m.UpdatedAt); err != nil {
		return err
	}

	for _, a := range m.Attachments {
		if _, err := tx.Exec(`
			INSERT INTO email_attachments (id, message_id, filename, size, content_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, a.ID, a.MessageID, a.Filename, a.Size, a.ContentType, a.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanMessage(s interface{ Scan(dest ...interface{}) error }) (*Message, error) {
	m := &Message{}
	err := s.Scan(&m.ID, &m.OrganizationID, &m.ClientID, &m.ThreadID, &m.Direction, &m.Subject,
		&m.Body, &m.FromAddress, &m.ToAddress, &m.Status, &m.SentAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *Repository) GetByID(id string) (*Message, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM email_messages WHERE id = ?`, id)
	return scanMessage(row)
}

func (r *Repository) ListAttachments(messageID string) ([]*Attachment, error) {
	rows, err := r.db.Query(`
		SELECT id, message_id, filename, size, content_type, created_at
		FROM email_attachments WHERE message_id = ? ORDER BY created_at ASC
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*Attachment
	for rows.Next() {
		a := &Attachment{}
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.Size, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *Repository) List(orgID, clientID, threadID, direction string, limit, offset int) ([]*Message, error) {
	query := `SELECT ` + columns + ` FROM email_messages WHERE org_id = ?`
	args := []interface{}{orgID}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	if threadID != "" {
		query += ` AND thread_id = ?`
		args = append(args, threadID)
	}
	if direction != "" {
		query += ` AND direction = ?`
		args = append(args, direction)
	}
	query += ` ORDER BY sent_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListThreads derives thread groupings: newest message first, subject taken
// from the latest message in each thread.
func (r *Repository) ListThreads(orgID, clientID string, limit, offset int) ([]*Thread, error) {
	query := `
		SELECT thread_id, COUNT(*) AS message_count, MAX(sent_at) AS last_message_at,
			(SELECT subject FROM email_messages m2
			 WHERE m2.thread_id = m.thread_id AND m2.org_id = m.org_id
			 ORDER BY m2.sent_at DESC LIMIT 1) AS subject
		FROM email_messages m WHERE org_id = ?
	`
	args := []interface{}{orgID}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	query += ` GROUP BY thread_id ORDER BY last_message_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		t := &Thread{}
		if err := rows.Scan(&t.ThreadID, &t.MessageCount, &t.LastMessageAt, &t.Subject); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *Repository) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE email_messages SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().Unix(), id)
	return err
}

func (r *Repository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM email_attachments WHERE message_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM email_messages WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

package tasks

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

const columns = `id, org_id, title, description, type, status, client_id, project_id, assignee_id, date, start_time, end_time, completed_at, created_at, updated_at`

func insertTaskTx(tx *sql.Tx, t *Task) error {
	_, err := tx.Exec(`
		INSERT INTO tasks (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.OrganizationID, t.Title, t.Description, t.Type, t.Status, t.ClientID, t.ProjectID,
		t.AssigneeID, t.Date, t.StartTime, t.EndTime, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	return err
}

// BulkCreate inserts all rows of one recurrence expansion atomically.
func (r *Repository) BulkCreate(tasks []*Task) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tasks {
		if err := insertTaskTx(tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanTask(s interface{ Scan(dest ...interface{}) error }) (*Task, error) {
	t := &Task{}
	err := s.Scan(&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.Type, &t.Status,
		&t.ClientID, &t.ProjectID, &t.AssigneeID, &t.Date, &t.StartTime, &t.EndTime,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *Repository) GetByID(id string) (*Task, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *Repository) List(orgID, status, clientID, projectID, assigneeID string, limit, offset int) ([]*Task, error) {
	query := `SELECT ` + columns + ` FROM tasks WHERE org_id = ?`
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	if assigneeID != "" {
		query += ` AND assignee_id = ?`
		args = append(args, assigneeID)
	}
	query += ` ORDER BY date ASC, start_time ASC, created_at ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *Repository) Update(t *Task) error {
	t.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE tasks SET title = ?, description = ?, type = ?, status = ?, client_id = ?,
			project_id = ?, assignee_id = ?, date = ?, start_time = ?, end_time = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, t.Type, t.Status, t.ClientID, t.ProjectID, t.AssigneeID,
		t.Date, t.StartTime, t.EndTime, t.CompletedAt, t.UpdatedAt, t.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

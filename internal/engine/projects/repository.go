package projects

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

const columns = `id, org_id, client_id, name, description, status, start_date, end_date, completed_at, created_at, updated_at`

func (r *Repository) Create(p *Project) error {
	_, err := r.db.Exec(`
		INSERT INTO projects (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OrganizationID, p.ClientID, p.Name, p.Description, p.Status,
		p.StartDate, p.EndDate, p.CompletedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func scanProject(s interface{ Scan(dest ...interface{}) error }) (*Project, error) {
	p := &Project{}
	err := s.Scan(&p.ID, &p.OrganizationID, &p.ClientID, &p.Name, &p.Description, &p.Status,
		&p.StartDate, &p.EndDate, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(id string) (*Project, error) {
	row := r.db.QueryRow(`SELECT `+columns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (r *Repository) List(orgID, status, clientID string, limit, offset int) ([]*Project, error) {
	query := `SELECT ` + columns + ` FROM projects WHERE org_id = ?`
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

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *Repository) Update(p *Project) error {
	p.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE projects SET name = ?, description = ?, status = ?, start_date = ?, end_date = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, p.Status, p.StartDate, p.EndDate, p.CompletedAt, p.UpdatedAt, p.ID)
	return err
}

func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	return err
}

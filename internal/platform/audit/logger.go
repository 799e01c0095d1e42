package audit

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Log records a mutation asynchronously. Audit writes never block or fail the
// request that triggered them.
func (l *Logger) Log(orgID, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &Entry{
		ID:             "audit_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		CreatedAt:      time.Now().Unix(),
	}

	metaJSON, _ := json.Marshal(metadata)

	go func() {
		l.db.Exec(`
			INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.OrganizationID, entry.UserID, entry.Action, entry.ResourceType,
			entry.ResourceID, string(metaJSON), entry.CreatedAt)
	}()
}

func (l *Logger) ListByOrg(orgID string, limit, offset int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, organization_id, user_id, action, resource_type, resource_id, metadata, created_at
		FROM audit_logs WHERE organization_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var metaStr sql.NullString
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action, &e.ResourceType,
			&e.ResourceID, &metaStr, &e.CreatedAt); err != nil {
			return nil, err
		}
		if metaStr.Valid && metaStr.String != "" {
			json.Unmarshal([]byte(metaStr.String), &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

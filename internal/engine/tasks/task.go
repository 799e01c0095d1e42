package tasks

type Task struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Type           string `json:"type"`   // internal, external
	Status         string `json:"status"` // pending, in-progress, completed, cancelled
	ClientID       string `json:"client_id,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	AssigneeID     string `json:"assignee_id,omitempty"`
	Date           string `json:"date,omitempty"`       // YYYY-MM-DD
	StartTime      string `json:"start_time,omitempty"` // HH:MM
	EndTime        string `json:"end_time,omitempty"`   // HH:MM
	CompletedAt    *int64 `json:"completed_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

var validStatuses = map[string]bool{
	"pending":     true,
	"in-progress": true,
	"completed":   true,
	"cancelled":   true,
}

var validRepeats = map[string]bool{
	"daily":    true,
	"weekly":   true,
	"biweekly": true,
	"monthly":  true,
}

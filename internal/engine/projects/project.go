package projects

type Project struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ClientID       string `json:"client_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"` // planned, in-progress, completed, cancelled
	StartDate      *int64 `json:"start_date,omitempty"`
	EndDate        *int64 `json:"end_date,omitempty"`
	CompletedAt    *int64 `json:"completed_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

var validStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"cancelled":   true,
}

package notifications

type Notification struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id,omitempty"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Kind           string `json:"kind,omitempty"`
	ScheduledFor   *int64 `json:"scheduled_for,omitempty"`
	ReadAt         *int64 `json:"read_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

func (n *Notification) Read() bool {
	return n.ReadAt != nil
}

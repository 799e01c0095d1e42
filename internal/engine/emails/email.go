package emails

type Message struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ClientID       string `json:"client_id"`
	ThreadID       string `json:"thread_id"`
	Direction      string `json:"direction"` // inbound, outbound
	Subject        string `json:"subject"`
	Body           string `json:"body,omitempty"`
	FromAddress    string `json:"from_address"`
	ToAddress      string `json:"to_address"`
	Status         string `json:"status"` // sent, delivered, opened, bounced, complained
	SentAt         int64  `json:"sent_at"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`

	Attachments []*Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ID          string `json:"id"`
	MessageID   string `json:"message_id"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	CreatedAt   int64  `json:"created_at"`
}

// Thread is a derived grouping of messages sharing a thread id.
type Thread struct {
	ThreadID      string `json:"thread_id"`
	Subject       string `json:"subject"`
	MessageCount  int    `json:"message_count"`
	LastMessageAt int64  `json:"last_message_at"`
}

var validStatuses = map[string]bool{
	"sent":       true,
	"delivered":  true,
	"opened":     true,
	"bounced":    true,
	"complained": true,
}

var validDirections = map[string]bool{
	"inbound":  true,
	"outbound": true,
}

package quotes

type Quote struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	ClientID       string  `json:"client_id"`
	Title          string  `json:"title,omitempty"`
	Status         string  `json:"status"` // draft, sent, approved, declined, expired
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	ApprovedAt     *int64  `json:"approved_at,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`

	LineItems []*LineItem `json:"line_items,omitempty"`
}

type LineItem struct {
	ID          string  `json:"id"`
	QuoteID     string  `json:"quote_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"` // always quantity x rate
	SortOrder   int     `json:"sort_order"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

var validStatuses = map[string]bool{
	"draft":    true,
	"sent":     true,
	"approved": true,
	"declined": true,
	"expired":  true,
}

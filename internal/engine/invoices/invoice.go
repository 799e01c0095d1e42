package invoices

type Invoice struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	ClientID       string  `json:"client_id"`
	Number         string  `json:"number,omitempty"`
	Status         string  `json:"status"` // draft, sent, paid, overdue, cancelled
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	IssuedDate     *int64  `json:"issued_date,omitempty"`
	DueDate        *int64  `json:"due_date,omitempty"`
	PaidAt         *int64  `json:"paid_at,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`

	LineItems []*LineItem `json:"line_items,omitempty"`
}

type LineItem struct {
	ID          string  `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"` // always quantity x unit_price
	SortOrder   int     `json:"sort_order"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

var validStatuses = map[string]bool{
	"draft":     true,
	"sent":      true,
	"paid":      true,
	"overdue":   true,
	"cancelled": true,
}

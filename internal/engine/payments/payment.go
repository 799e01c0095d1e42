package payments

type Payment struct {
	ID                    string  `json:"id"`
	OrganizationID        string  `json:"organization_id"`
	InvoiceID             string  `json:"invoice_id"`
	Amount                float64 `json:"amount"`
	Status                string  `json:"status"` // pending, sent, paid, overdue, cancelled
	PublicToken           string  `json:"public_token"`
	SortOrder             int     `json:"sort_order"`
	DueDate               *int64  `json:"due_date,omitempty"`
	PaidAt                *int64  `json:"paid_at,omitempty"`
	StripeSessionID       string  `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string  `json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             int64   `json:"created_at"`
	UpdatedAt             int64   `json:"updated_at"`
}

// amountEpsilon is the tolerance for reconciling payment amounts against the
// invoice total. Amounts are currency values carried as float64, so exact
// equality is not meaningful.
const amountEpsilon = 0.01

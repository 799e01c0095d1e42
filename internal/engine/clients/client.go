package clients

type Client struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	CompanyName    string `json:"company_name"`
	Status         string `json:"status"` // lead, prospect, active, inactive, archived
	LeadSource     string `json:"lead_source,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type Contact struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ClientID       string `json:"client_id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Title          string `json:"title,omitempty"`
	IsPrimary      bool   `json:"is_primary"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type Property struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ClientID       string `json:"client_id"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	Country        string `json:"country,omitempty"`
	IsPrimary      bool   `json:"is_primary"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

var validStatuses = map[string]bool{
	"lead":     true,
	"prospect": true,
	"active":   true,
	"inactive": true,
	"archived": true,
}

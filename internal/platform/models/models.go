package models

type Organization struct {
	ID                string  `json:"id"`
	ExternalID        string  `json:"external_id"`
	Name              string  `json:"name"`
	Email             string  `json:"email,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	AddressLine1      string  `json:"address_line1,omitempty"`
	AddressLine2      string  `json:"address_line2,omitempty"`
	City              string  `json:"city,omitempty"`
	PostalCode        string  `json:"postal_code,omitempty"`
	Country           string  `json:"country,omitempty"`
	Timezone          string  `json:"timezone"`
	BillingAccountID  string  `json:"billing_account_id,omitempty"`
	RevenueTarget     float64 `json:"revenue_target"`
	ClientCount       int     `json:"client_count"`
	ESignaturesSent   int     `json:"esignatures_sent"`
	ESignatureResetAt int64   `json:"esignature_reset_at"`
	MetadataCompleted bool    `json:"metadata_completed"`
	OwnerUserID       string  `json:"owner_user_id"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
	DeletedAt         *int64  `json:"deleted_at,omitempty"`
}

type User struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ImageURL   string `json:"image_url,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	DeletedAt  *int64 `json:"deleted_at,omitempty"`
}

type Membership struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"` // admin, member
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`

	User *User `json:"user,omitempty"`
}

package stats

type HomeStats struct {
	ClientCount            int     `json:"client_count"`
	NewClientsThisMonth    int     `json:"new_clients_this_month"`
	NewClientsDelta        int     `json:"new_clients_delta"`
	CompletedProjects      int     `json:"completed_projects_this_month"`
	CompletedProjectsDelta int     `json:"completed_projects_delta"`
	ApprovedQuotes         int     `json:"approved_quotes_this_month"`
	ApprovedQuotesDelta    int     `json:"approved_quotes_delta"`
	PaidInvoices           int     `json:"paid_invoices_this_month"`
	PaidInvoicesDelta      int     `json:"paid_invoices_delta"`
	RevenueThisMonth       float64 `json:"revenue_this_month"`
	RevenueGoal            float64 `json:"revenue_goal"`
	RevenueGoalPercent     float64 `json:"revenue_goal_percent"`
	OnTrack                bool    `json:"on_track"`
}

type UsageStats struct {
	ClientCount       int    `json:"client_count"`
	ESignaturesSent   int    `json:"esignatures_sent"`
	ESignatureResetAt int64  `json:"esignature_reset_at,omitempty"`
}

type JourneyProgress struct {
	HasClient         bool `json:"has_client"`
	HasProject        bool `json:"has_project"`
	HasQuote          bool `json:"has_quote"`
	HasInvoice        bool `json:"has_invoice"`
	HasTask           bool `json:"has_task"`
	MetadataCompleted bool `json:"metadata_completed"`
}

type DayBucket struct {
	Date  string  `json:"date"` // YYYY-MM-DD in the org timezone
	Count int     `json:"count"`
	Value float64 `json:"value,omitempty"`
}

// DateRangeStats carries a baseline so charts can render cumulative lines.
type DateRangeStats struct {
	BaselineCount int          `json:"baseline_count"`
	TotalInRange  int          `json:"total_in_range"`
	Days          []*DayBucket `json:"days"`
}

// defaultRevenueGoal applies when the org has no configured target.
const defaultRevenueGoal = 50000

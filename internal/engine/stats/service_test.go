package stats

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"opsdesk/internal/platform/models"
)

type stubOrgs map[string]*models.Organization

func (s stubOrgs) GetByID(id string) (*models.Organization, error) {
	return s[id], nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE clients (id TEXT PRIMARY KEY, org_id TEXT, created_at INTEGER);
	CREATE TABLE projects (id TEXT PRIMARY KEY, org_id TEXT, status TEXT, completed_at INTEGER, created_at INTEGER);
	CREATE TABLE quotes (id TEXT PRIMARY KEY, org_id TEXT, status TEXT, approved_at INTEGER, created_at INTEGER);
	CREATE TABLE invoices (id TEXT PRIMARY KEY, org_id TEXT, status TEXT, total REAL, paid_at INTEGER, created_at INTEGER);
	CREATE TABLE tasks (id TEXT PRIMARY KEY, org_id TEXT, created_at INTEGER);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, org *models.Organization) (*Service, *sql.DB) {
	db := setupTestDB(t)
	orgs := stubOrgs{}
	if org != nil {
		orgs[org.ID] = org
	}
	return NewService(NewRepository(db), orgs), db
}

func TestHomeStats_NilScopeZeroes(t *testing.T) {
	svc, db := newTestService(t, nil)
	defer db.Close()

	stats, err := svc.HomeStats("", time.Now())
	if err != nil {
		t.Fatalf("HomeStats failed: %v", err)
	}
	if *stats != (HomeStats{}) {
		t.Errorf("Expected zeroed stats, got %+v", stats)
	}

	usage, _ := svc.UsageStats("")
	if *usage != (UsageStats{}) {
		t.Errorf("Expected zeroed usage, got %+v", usage)
	}
}

func TestHomeStats_MonthOverMonth(t *testing.T) {
	org := &models.Organization{ID: "org_1", Timezone: "UTC", ClientCount: 5, RevenueTarget: 10000}
	svc, db := newTestService(t, org)
	defer db.Close()

	// Fixed clock: 2026-06-15 12:00 UTC, so current month is June, previous May
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	june := time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC).Unix()
	may := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC).Unix()

	db.Exec(`INSERT INTO clients VALUES ('c1','org_1',?),('c2','org_1',?),('c3','org_1',?)`, june, june, may)
	db.Exec(`INSERT INTO projects VALUES ('p1','org_1','completed',?,?)`, june, may)
	db.Exec(`INSERT INTO quotes VALUES ('q1','org_1','approved',?,?),('q2','org_1','approved',?,?)`, may, may, may, may)
	db.Exec(`INSERT INTO invoices VALUES ('i1','org_1','paid',6000,?,?),('i2','org_1','sent',500,NULL,?)`, june, may, may)

	stats, err := svc.HomeStats("org_1", now)
	if err != nil {
		t.Fatalf("HomeStats failed: %v", err)
	}

	if stats.ClientCount != 5 {
		t.Errorf("Expected client count 5, got %d", stats.ClientCount)
	}
	if stats.NewClientsThisMonth != 2 || stats.NewClientsDelta != 1 {
		t.Errorf("Clients: got this=%d delta=%d", stats.NewClientsThisMonth, stats.NewClientsDelta)
	}
	if stats.CompletedProjects != 1 || stats.CompletedProjectsDelta != 1 {
		t.Errorf("Projects: got this=%d delta=%d", stats.CompletedProjects, stats.CompletedProjectsDelta)
	}
	if stats.ApprovedQuotes != 0 || stats.ApprovedQuotesDelta != -2 {
		t.Errorf("Quotes: got this=%d delta=%d", stats.ApprovedQuotes, stats.ApprovedQuotesDelta)
	}
	if stats.PaidInvoices != 1 || stats.PaidInvoicesDelta != 1 {
		t.Errorf("Invoices: got this=%d delta=%d", stats.PaidInvoices, stats.PaidInvoicesDelta)
	}
	if stats.RevenueThisMonth != 6000 {
		t.Errorf("Expected revenue 6000, got %v", stats.RevenueThisMonth)
	}
	if stats.RevenueGoalPercent != 60 {
		t.Errorf("Expected goal percent 60, got %v", stats.RevenueGoalPercent)
	}
	// June 15 of 30 days = 50% elapsed; 60% revenue >= 50% -> on track
	if !stats.OnTrack {
		t.Error("Expected on track")
	}
}

func TestHomeStats_DefaultRevenueGoal(t *testing.T) {
	org := &models.Organization{ID: "org_1", Timezone: "UTC"}
	svc, db := newTestService(t, org)
	defer db.Close()

	stats, err := svc.HomeStats("org_1", time.Now())
	if err != nil {
		t.Fatalf("HomeStats failed: %v", err)
	}
	if stats.RevenueGoal != 50000 {
		t.Errorf("Expected default goal 50000, got %v", stats.RevenueGoal)
	}
}

func TestJourneyProgress(t *testing.T) {
	org := &models.Organization{ID: "org_1", MetadataCompleted: true}
	svc, db := newTestService(t, org)
	defer db.Close()

	db.Exec(`INSERT INTO clients VALUES ('c1','org_1',1000)`)
	db.Exec(`INSERT INTO tasks VALUES ('t1','org_1',1000)`)
	db.Exec(`INSERT INTO clients VALUES ('c2','org_2',1000)`)

	progress, err := svc.JourneyProgress("org_1")
	if err != nil {
		t.Fatalf("JourneyProgress failed: %v", err)
	}
	if !progress.HasClient || !progress.HasTask || !progress.MetadataCompleted {
		t.Errorf("Expected client/task/metadata true: %+v", progress)
	}
	if progress.HasProject || progress.HasQuote || progress.HasInvoice {
		t.Errorf("Expected project/quote/invoice false: %+v", progress)
	}
}

func TestClientsByDateRange_TimezoneBuckets(t *testing.T) {
	org := &models.Organization{ID: "org_1", Timezone: "America/New_York"}
	svc, db := newTestService(t, org)
	defer db.Close()

	// 2026-06-02 03:00 UTC is still 2026-06-01 in New York
	beforeRange := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Unix()
	lateNight := time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC).Unix()
	midday := time.Date(2026, 6, 2, 16, 0, 0, 0, time.UTC).Unix()

	db.Exec(`INSERT INTO clients VALUES ('c0','org_1',?),('c1','org_1',?),('c2','org_1',?)`,
		beforeRange, lateNight, midday)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Unix()

	result, err := svc.ClientsByDateRange("org_1", from, to)
	if err != nil {
		t.Fatalf("ClientsByDateRange failed: %v", err)
	}
	if result.BaselineCount != 1 {
		t.Errorf("Expected baseline 1, got %d", result.BaselineCount)
	}
	if result.TotalInRange != 2 {
		t.Errorf("Expected 2 in range, got %d", result.TotalInRange)
	}
	if len(result.Days) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(result.Days))
	}
	if result.Days[0].Date != "2026-06-01" || result.Days[1].Date != "2026-06-02" {
		t.Errorf("Unexpected bucket dates: %s, %s", result.Days[0].Date, result.Days[1].Date)
	}
}

func TestRevenueByDateRange(t *testing.T) {
	org := &models.Organization{ID: "org_1", Timezone: "UTC"}
	svc, db := newTestService(t, org)
	defer db.Close()

	day := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC).Unix()
	db.Exec(`INSERT INTO invoices VALUES ('i1','org_1','paid',300,?,?),('i2','org_1','paid',700,?,?)`,
		day, day, day, day)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Unix()

	result, err := svc.RevenueByDateRange("org_1", from, to)
	if err != nil {
		t.Fatalf("RevenueByDateRange failed: %v", err)
	}
	if result.TotalInRange != 2 {
		t.Errorf("Expected 2 events, got %d", result.TotalInRange)
	}
	if len(result.Days) != 1 || result.Days[0].Value != 1000 {
		t.Errorf("Expected one bucket of 1000, got %+v", result.Days)
	}
}

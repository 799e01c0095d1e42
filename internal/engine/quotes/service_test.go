package quotes

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	apperrors "opsdesk/internal/pkg/errors"
)

type stubClients map[string]string

func (s stubClients) ClientOrg(clientID string) (string, error) {
	return s[clientID], nil
}

type countingSignatures struct {
	count int
}

func (c *countingSignatures) IncrementESignatures(orgID string) error {
	c.count++
	return nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE quotes (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		title TEXT,
		status TEXT NOT NULL,
		subtotal REAL DEFAULT 0,
		tax REAL DEFAULT 0,
		total REAL DEFAULT 0,
		approved_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE quote_line_items (
		id TEXT PRIMARY KEY,
		quote_id TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity REAL NOT NULL,
		rate REAL NOT NULL,
		amount REAL NOT NULL,
		sort_order INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *countingSignatures, *sql.DB) {
	db := setupTestDB(t)
	sigs := &countingSignatures{}
	return NewService(NewRepository(db), stubClients{"cli_1": "org_1"}, sigs), sigs, db
}

func TestSendIncrementsESignatures(t *testing.T) {
	svc, sigs, db := newTestService(t)
	defer db.Close()

	quote, err := svc.Create("org_1", &CreateInput{ClientID: "cli_1", Title: "Spring job"})
	if err != nil {
		t.Fatalf("Failed to create quote: %v", err)
	}

	sent, err := svc.Send("org_1", quote.ID)
	if err != nil {
		t.Fatalf("Failed to send quote: %v", err)
	}
	if sent.Status != "sent" {
		t.Errorf("Expected status sent, got %s", sent.Status)
	}
	if sigs.count != 1 {
		t.Errorf("Expected 1 e-signature counted, got %d", sigs.count)
	}

	// Second send is rejected and does not count again
	_, err = svc.Send("org_1", quote.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error, got %v", err)
	}
	if sigs.count != 1 {
		t.Errorf("Expected count to stay 1, got %d", sigs.count)
	}
}

func TestApproveSetsApprovedAt(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	quote, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})

	// Draft quotes cannot be approved
	_, err := svc.Approve("org_1", quote.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error approving draft, got %v", err)
	}

	if _, err := svc.Send("org_1", quote.ID); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	approved, err := svc.Approve("org_1", quote.ID)
	if err != nil {
		t.Fatalf("Failed to approve: %v", err)
	}
	if approved.ApprovedAt == nil {
		t.Error("Expected approved_at to be set")
	}

	_, err = svc.Approve("org_1", quote.ID)
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error re-approving, got %v", err)
	}
}

func TestQuoteLineItemAmount(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	quote, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1", Tax: 10})
	item, err := svc.AddLineItem("org_1", quote.ID, &LineItemInput{Description: "Labor", Quantity: 3, Rate: 80})
	if err != nil {
		t.Fatalf("Failed to add line item: %v", err)
	}
	if item.Amount != 240 {
		t.Errorf("Expected amount 240, got %v", item.Amount)
	}

	rate := 100.0
	item, err = svc.UpdateLineItem("org_1", quote.ID, item.ID, &UpdateLineItemInput{Rate: &rate})
	if err != nil {
		t.Fatalf("Failed to update line item: %v", err)
	}
	if item.Amount != 300 {
		t.Errorf("Expected amount 300, got %v", item.Amount)
	}

	got, _ := svc.Get("org_1", quote.ID)
	if got.Subtotal != 300 || got.Total != 310 {
		t.Errorf("Expected subtotal 300 / total 310, got %v/%v", got.Subtotal, got.Total)
	}
}

func TestQuoteCrossOrgAccess(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	quote, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})

	_, err := svc.Get("org_other", quote.ID)
	var scopeErr *apperrors.ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error, got %v", err)
	}
	if scopeErr.Error() != "Quote does not belong to your organization" {
		t.Errorf("Unexpected message: %s", scopeErr.Error())
	}
}

package invoices

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	apperrors "opsdesk/internal/pkg/errors"
)

type stubClients map[string]string // client id -> org id

func (s stubClients) ClientOrg(clientID string) (string, error) {
	return s[clientID], nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		number TEXT,
		status TEXT NOT NULL,
		subtotal REAL DEFAULT 0,
		tax REAL DEFAULT 0,
		total REAL DEFAULT 0,
		issued_date INTEGER,
		due_date INTEGER,
		paid_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE invoice_line_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity REAL NOT NULL,
		unit_price REAL NOT NULL,
		total REAL NOT NULL,
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

func newTestService(t *testing.T) (*Service, *sql.DB) {
	db := setupTestDB(t)
	return NewService(NewRepository(db), stubClients{"cli_1": "org_1"}), db
}

func TestLineItemDerivation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	invoice, err := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	item, err := svc.AddLineItem("org_1", invoice.ID, &LineItemInput{
		Description: "Consulting",
		Quantity:    4,
		UnitPrice:   125.50,
	})
	if err != nil {
		t.Fatalf("Failed to add line item: %v", err)
	}
	if item.Total != 4*125.50 {
		t.Errorf("Expected total %v, got %v", 4*125.50, item.Total)
	}

	// Partial update of one factor recomputes using the stored other factor
	qty := 2.0
	item, err = svc.UpdateLineItem("org_1", invoice.ID, item.ID, &UpdateLineItemInput{Quantity: &qty})
	if err != nil {
		t.Fatalf("Failed to update line item: %v", err)
	}
	if item.Total != 2*125.50 {
		t.Errorf("Expected total %v, got %v", 2*125.50, item.Total)
	}

	price := 100.0
	item, err = svc.UpdateLineItem("org_1", invoice.ID, item.ID, &UpdateLineItemInput{UnitPrice: &price})
	if err != nil {
		t.Fatalf("Failed to update line item: %v", err)
	}
	if item.Total != 200.0 {
		t.Errorf("Expected total 200, got %v", item.Total)
	}

	// Invoice totals roll up
	invoice, _ = svc.Get("org_1", invoice.ID)
	if invoice.Subtotal != 200.0 || invoice.Total != 200.0 {
		t.Errorf("Expected subtotal/total 200, got %v/%v", invoice.Subtotal, invoice.Total)
	}
}

func TestDuplicateLineItem(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	invoice, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})
	item, _ := svc.AddLineItem("org_1", invoice.ID, &LineItemInput{Description: "Design", Quantity: 1, UnitPrice: 500})

	dup, err := svc.DuplicateLineItem("org_1", invoice.ID, item.ID)
	if err != nil {
		t.Fatalf("Failed to duplicate: %v", err)
	}
	if dup.Description != "Design (Copy)" {
		t.Errorf("Expected description 'Design (Copy)', got %q", dup.Description)
	}
	if dup.SortOrder != item.SortOrder+1 {
		t.Errorf("Expected sort order %d, got %d", item.SortOrder+1, dup.SortOrder)
	}
	if dup.Total != 500 {
		t.Errorf("Expected total 500, got %v", dup.Total)
	}
}

func TestReorderLineItems(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	invoice, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})
	a, _ := svc.AddLineItem("org_1", invoice.ID, &LineItemInput{Description: "A", Quantity: 1, UnitPrice: 1})
	b, _ := svc.AddLineItem("org_1", invoice.ID, &LineItemInput{Description: "B", Quantity: 1, UnitPrice: 1})
	c, _ := svc.AddLineItem("org_1", invoice.ID, &LineItemInput{Description: "C", Quantity: 1, UnitPrice: 1})

	if err := svc.ReorderLineItems("org_1", invoice.ID, []string{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	got, _ := svc.Get("org_1", invoice.ID)
	if len(got.LineItems) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(got.LineItems))
	}
	want := []string{"C", "A", "B"}
	for i, item := range got.LineItems {
		if item.Description != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], item.Description)
		}
	}
}

func TestCrossOrgInvoiceAccess(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	invoice, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})

	_, err := svc.Get("org_other", invoice.ID)
	var scopeErr *apperrors.ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error, got %v", err)
	}
}

func TestDeletePaidInvoiceBlocked(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	invoice, _ := svc.Create("org_1", &CreateInput{ClientID: "cli_1"})
	if err := svc.repo.MarkInvoicePaid(invoice.ID, 12345); err != nil {
		t.Fatalf("Failed to mark paid: %v", err)
	}

	err := svc.Delete("org_1", invoice.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error deleting paid invoice, got %v", err)
	}
}

package payments

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	apperrors "opsdesk/internal/pkg/errors"
)

type stubInvoices struct {
	orgID  string
	total  float64
	paid   bool
	paidAt int64
}

func (s *stubInvoices) InvoiceOrgAndTotal(invoiceID string) (string, float64, bool, error) {
	if invoiceID != "inv_1" {
		return "", 0, false, nil
	}
	return s.orgID, s.total, true, nil
}

func (s *stubInvoices) MarkInvoicePaid(invoiceID string, paidAt int64) error {
	s.paid = true
	s.paidAt = paidAt
	return nil
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		invoice_id TEXT NOT NULL,
		amount REAL NOT NULL,
		status TEXT NOT NULL,
		public_token TEXT NOT NULL UNIQUE,
		sort_order INTEGER DEFAULT 0,
		due_date INTEGER,
		paid_at INTEGER,
		stripe_session_id TEXT DEFAULT '',
		stripe_payment_intent_id TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, total float64) (*Service, *stubInvoices, *sql.DB) {
	db := setupTestDB(t)
	invoices := &stubInvoices{orgID: "org_1", total: total}
	return NewService(NewRepository(db), invoices), invoices, db
}

func TestConfigureMustEqualInvoiceTotal(t *testing.T) {
	svc, _, db := newTestService(t, 1000)
	defer db.Close()

	_, err := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 400}, {Amount: 500}})
	var invErr *apperrors.InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("Expected invariant error, got %v", err)
	}
	if invErr.Error() != "Payment amounts must equal invoice total" {
		t.Errorf("Unexpected message: %s", invErr.Error())
	}

	// Within epsilon passes
	rows, err := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 400}, {Amount: 599.995}})
	if err != nil {
		t.Fatalf("Expected configure within epsilon to pass, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 payments, got %d", len(rows))
	}
	for _, p := range rows {
		if p.Status != "pending" {
			t.Errorf("Expected pending, got %s", p.Status)
		}
		if p.PublicToken == "" {
			t.Error("Expected a public token")
		}
	}
}

func TestConfigurePreservesPaidRows(t *testing.T) {
	svc, _, db := newTestService(t, 1000)
	defer db.Close()

	rows, err := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 300}, {Amount: 700}})
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	// Pay the first installment
	paid, err := svc.MarkPaidByPublicToken(rows[0].PublicToken, "cs_1", "pi_1")
	if err != nil {
		t.Fatalf("Failed to mark paid: %v", err)
	}

	// New rows + preserved paid rows must still hit the invoice total
	_, err = svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 800}})
	var invErr *apperrors.InvariantError
	if !errors.As(err, &invErr) {
		t.Errorf("Expected invariant error when rows overshoot the remainder, got %v", err)
	}

	if _, err := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 700}}); err != nil {
		t.Fatalf("Reconfigure of remainder failed: %v", err)
	}

	after, _ := svc.ListByInvoice("org_1", "inv_1")
	if len(after) != 2 {
		t.Fatalf("Expected 2 payments after reconfigure, got %d", len(after))
	}
	foundPaid := false
	for _, p := range after {
		if p.ID == paid.ID {
			foundPaid = true
			if p.Status != "paid" || p.Amount != 300 {
				t.Errorf("Paid row was touched: status=%s amount=%v", p.Status, p.Amount)
			}
		} else if p.SortOrder <= paid.SortOrder {
			t.Errorf("Fresh row sort order %d does not continue after paid row %d", p.SortOrder, paid.SortOrder)
		}
	}
	if !foundPaid {
		t.Error("Paid row was removed by reconfigure")
	}
}

func TestMarkPaidByPublicTokenIdempotent(t *testing.T) {
	svc, invoices, db := newTestService(t, 500)
	defer db.Close()

	rows, _ := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 500}})
	token := rows[0].PublicToken

	first, err := svc.MarkPaidByPublicToken(token, "cs_first", "pi_first")
	if err != nil {
		t.Fatalf("First completion failed: %v", err)
	}
	if !invoices.paid {
		t.Error("Expected invoice to transition to paid after last payment")
	}

	second, err := svc.MarkPaidByPublicToken(token, "cs_second", "pi_second")
	if err != nil {
		t.Fatalf("Second completion should succeed, got %v", err)
	}
	if second.StripeSessionID != "cs_first" || second.StripePaymentIntentID != "pi_first" {
		t.Error("Idempotent completion must not overwrite the original stripe references")
	}
	if second.PaidAt == nil || first.PaidAt == nil || *second.PaidAt != *first.PaidAt {
		t.Error("Idempotent completion must not move paid_at")
	}
}

func TestInvoiceNotPaidUntilAllPayments(t *testing.T) {
	svc, invoices, db := newTestService(t, 1000)
	defer db.Close()

	rows, _ := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 400}, {Amount: 600}})

	if _, err := svc.MarkPaidByPublicToken(rows[0].PublicToken, "cs_1", "pi_1"); err != nil {
		t.Fatalf("Failed to pay first: %v", err)
	}
	if invoices.paid {
		t.Error("Invoice must stay unpaid while payments remain")
	}

	if _, err := svc.MarkPaidByPublicToken(rows[1].PublicToken, "cs_2", "pi_2"); err != nil {
		t.Fatalf("Failed to pay second: %v", err)
	}
	if !invoices.paid {
		t.Error("Invoice must go paid once the last payment clears")
	}
}

func TestPaidIsTerminal(t *testing.T) {
	svc, _, db := newTestService(t, 100)
	defer db.Close()

	rows, _ := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 100}})
	if _, err := svc.MarkPaidByPublicToken(rows[0].PublicToken, "cs", "pi"); err != nil {
		t.Fatalf("Failed to pay: %v", err)
	}
	id := rows[0].ID

	var stateErr *apperrors.StateError
	amount := 50.0
	if _, err := svc.Update("org_1", id, &UpdateInput{Amount: &amount}); !errors.As(err, &stateErr) {
		t.Errorf("Update on paid payment: expected state error, got %v", err)
	}
	if _, err := svc.MarkAsSent("org_1", id); !errors.As(err, &stateErr) {
		t.Errorf("MarkAsSent on paid payment: expected state error, got %v", err)
	}
	if _, err := svc.MarkAsOverdue("org_1", id); !errors.As(err, &stateErr) {
		t.Errorf("MarkAsOverdue on paid payment: expected state error, got %v", err)
	}
	if _, err := svc.Cancel("org_1", id); !errors.As(err, &stateErr) {
		t.Errorf("Cancel on paid payment: expected state error, got %v", err)
	}
	if err := svc.Remove("org_1", id); !errors.As(err, &stateErr) {
		t.Errorf("Remove on paid payment: expected state error, got %v", err)
	}
}

func TestAmountsMustBePositive(t *testing.T) {
	svc, _, db := newTestService(t, 100)
	defer db.Close()

	_, err := svc.Configure("org_1", "inv_1", []*RowInput{{Amount: 100}, {Amount: 0}})
	var valErr *apperrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected validation error for zero amount, got %v", err)
	}
}

func TestConfigureCrossOrg(t *testing.T) {
	svc, _, db := newTestService(t, 100)
	defer db.Close()

	_, err := svc.Configure("org_other", "inv_1", []*RowInput{{Amount: 100}})
	var scopeErr *apperrors.ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error, got %v", err)
	}
}

package emails

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

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE email_messages (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		thread_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT DEFAULT '',
		from_address TEXT DEFAULT '',
		to_address TEXT DEFAULT '',
		status TEXT NOT NULL,
		sent_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE email_attachments (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT DEFAULT '',
		created_at INTEGER NOT NULL
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

func TestThreadGrouping(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	one := int64(1000)
	two := int64(2000)
	three := int64(3000)

	first, err := svc.Create("org_1", &CreateInput{
		ClientID: "cli_1", Direction: "outbound", Subject: "Quote for spring cleanup", SentAt: &one,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ThreadID == "" {
		t.Fatal("Expected a thread id to be assigned")
	}

	svc.Create("org_1", &CreateInput{
		ClientID: "cli_1", ThreadID: first.ThreadID, Direction: "inbound",
		Subject: "Re: Quote for spring cleanup", SentAt: &two,
	})
	svc.Create("org_1", &CreateInput{
		ClientID: "cli_1", Direction: "outbound", Subject: "Invoice #5", SentAt: &three,
	})

	threads, err := svc.ListThreads("org_1", "", 10, 0)
	if err != nil {
		t.Fatalf("ListThreads failed: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("Expected 2 threads, got %d", len(threads))
	}
	// Newest thread first
	if threads[0].Subject != "Invoice #5" || threads[0].MessageCount != 1 {
		t.Errorf("Unexpected first thread: %+v", threads[0])
	}
	if threads[1].ThreadID != first.ThreadID || threads[1].MessageCount != 2 {
		t.Errorf("Unexpected second thread: %+v", threads[1])
	}
	if threads[1].Subject != "Re: Quote for spring cleanup" {
		t.Errorf("Thread subject should come from the latest message, got %q", threads[1].Subject)
	}
	if threads[1].LastMessageAt != two {
		t.Errorf("Expected last message at %d, got %d", two, threads[1].LastMessageAt)
	}
}

func TestCreateMessage_Validation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	var valErr *apperrors.ValidationError
	if _, err := svc.Create("org_1", &CreateInput{ClientID: "cli_1", Direction: "sideways", Subject: "S"}); !errors.As(err, &valErr) {
		t.Errorf("Expected validation error for bad direction, got %v", err)
	}
	if _, err := svc.Create("org_1", &CreateInput{ClientID: "cli_1", Direction: "inbound", Subject: "  "}); !errors.As(err, &valErr) {
		t.Errorf("Expected validation error for blank subject, got %v", err)
	}

	var scopeErr *apperrors.ScopeError
	if _, err := svc.Create("org_other", &CreateInput{ClientID: "cli_1", Direction: "inbound", Subject: "S"}); !errors.As(err, &scopeErr) {
		t.Errorf("Expected scope error for foreign client, got %v", err)
	}
}

func TestAttachmentsRoundTrip(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	created, err := svc.Create("org_1", &CreateInput{
		ClientID: "cli_1", Direction: "outbound", Subject: "Contract",
		Attachments: []*AttachmentInput{
			{Filename: "contract.pdf", Size: 52344, ContentType: "application/pdf"},
			{Filename: "sitemap.png", Size: 1200, ContentType: "image/png"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := svc.Get("org_1", created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(got.Attachments))
	}
	if got.Attachments[0].Filename != "contract.pdf" {
		t.Errorf("Unexpected attachment: %+v", got.Attachments[0])
	}
}

package notifications

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	apperrors "opsdesk/internal/pkg/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT DEFAULT '',
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		kind TEXT DEFAULT '',
		scheduled_for INTEGER,
		read_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func TestCreateNotification_Validation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := NewService(NewRepository(db))

	var valErr *apperrors.ValidationError
	if _, err := svc.Create("org_1", &CreateInput{Title: "  ", Message: "Body"}); !errors.As(err, &valErr) {
		t.Errorf("Expected validation error for blank title, got %v", err)
	}
	if _, err := svc.Create("org_1", &CreateInput{Title: "Hi", Message: " "}); !errors.As(err, &valErr) {
		t.Errorf("Expected validation error for blank message, got %v", err)
	}

	past := time.Now().Unix() - 60
	if _, err := svc.Create("org_1", &CreateInput{Title: "Hi", Message: "Body", ScheduledFor: &past}); !errors.As(err, &valErr) {
		t.Errorf("Expected validation error for past schedule, got %v", err)
	}

	future := time.Now().Unix() + 3600
	if _, err := svc.Create("org_1", &CreateInput{Title: "Hi", Message: "Body", ScheduledFor: &future}); err != nil {
		t.Errorf("Future schedule should pass: %v", err)
	}
}

func TestMarkReadNotIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := NewService(NewRepository(db))

	n, _ := svc.Create("org_1", &CreateInput{Title: "Invoice paid", Message: "Invoice #12 was paid"})

	read, err := svc.MarkRead("org_1", n.ID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if read.ReadAt == nil {
		t.Error("Expected read_at to be set")
	}

	_, err = svc.MarkRead("org_1", n.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error, got %v", err)
	}
	if stateErr.Error() != "Notification is already read" {
		t.Errorf("Unexpected message: %s", stateErr.Error())
	}

	if _, err := svc.MarkUnread("org_1", n.ID); err != nil {
		t.Fatalf("MarkUnread failed: %v", err)
	}
	_, err = svc.MarkUnread("org_1", n.ID)
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error, got %v", err)
	}
	if stateErr.Error() != "Notification is already unread" {
		t.Errorf("Unexpected message: %s", stateErr.Error())
	}
}

func TestMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	svc := NewService(NewRepository(db))

	for i := 0; i < 3; i++ {
		if _, err := svc.Create("org_1", &CreateInput{Title: "T", Message: "M", UserID: "usr_1"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	svc.Create("org_2", &CreateInput{Title: "T", Message: "M", UserID: "usr_2"})

	count, err := svc.MarkAllRead("org_1", "usr_1")
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 marked, got %d", count)
	}

	// Second run matches nothing
	count, _ = svc.MarkAllRead("org_1", "usr_1")
	if count != 0 {
		t.Errorf("Expected 0 on second run, got %d", count)
	}

	unread, _ := svc.List("org_2", "usr_2", true, 10, 0)
	if len(unread) != 1 {
		t.Errorf("Other org should be untouched, got %d unread", len(unread))
	}
}

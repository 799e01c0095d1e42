package tasks

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
	CREATE TABLE tasks (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		client_id TEXT DEFAULT '',
		project_id TEXT DEFAULT '',
		assignee_id TEXT DEFAULT '',
		date TEXT DEFAULT '',
		start_time TEXT DEFAULT '',
		end_time TEXT DEFAULT '',
		completed_at INTEGER,
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

func TestCreateTask_TypeRules(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	_, err := svc.Create("org_1", &CreateInput{Title: "Site visit", Type: "external"})
	var valErr *apperrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if valErr.Error() != "External tasks require a client" {
		t.Errorf("Unexpected message: %s", valErr.Error())
	}

	if _, err := svc.Create("org_1", &CreateInput{Title: "Site visit", Type: "external", ClientID: "cli_1"}); err != nil {
		t.Errorf("External task with client should pass: %v", err)
	}

	_, err = svc.Create("org_1", &CreateInput{Title: "Standup", Type: "internal", ClientID: "cli_1"})
	if !errors.As(err, &valErr) {
		t.Errorf("Internal task with client should be rejected, got %v", err)
	}

	if _, err := svc.Create("org_1", &CreateInput{Title: "Standup", Type: "internal"}); err != nil {
		t.Errorf("Internal task without client should pass: %v", err)
	}
}

func TestCreateTask_TimeValidation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	cases := []struct {
		start, end string
		ok         bool
	}{
		{"09:00", "10:30", true},
		{"00:00", "23:59", true},
		{"24:00", "", false},
		{"09:60", "", false},
		{"9:00", "", false},
		{"10:00", "10:00", false}, // end must be strictly after
		{"10:00", "09:00", false},
		{"", "", true},
	}

	for _, tc := range cases {
		_, err := svc.Create("org_1", &CreateInput{Title: "T", StartTime: tc.start, EndTime: tc.end})
		if tc.ok && err != nil {
			t.Errorf("start=%q end=%q: expected success, got %v", tc.start, tc.end, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("start=%q end=%q: expected rejection", tc.start, tc.end)
		}
	}
}

func TestRecurrenceExpansion(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	cases := []struct {
		repeat string
		until  string
		want   int
	}{
		{"daily", "2026-03-07", 7},
		{"weekly", "2026-03-22", 4},
		{"biweekly", "2026-03-29", 3},
		{"monthly", "2026-06-01", 4},
	}

	for _, tc := range cases {
		created, err := svc.Create("org_1", &CreateInput{
			Title:       "Mow the lawn",
			Date:        "2026-03-01",
			Repeat:      tc.repeat,
			RepeatUntil: tc.until,
		})
		if err != nil {
			t.Fatalf("repeat=%s: %v", tc.repeat, err)
		}
		if len(created) != tc.want {
			t.Errorf("repeat=%s: expected %d rows, got %d", tc.repeat, tc.want, len(created))
		}
		for _, task := range created {
			if task.Title != "Mow the lawn" || task.Status != "pending" {
				t.Errorf("Expanded row lost business fields: %+v", task)
			}
		}
	}
}

func TestRecurrenceBoundaryInclusive(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	created, err := svc.Create("org_1", &CreateInput{
		Title:       "Check in",
		Date:        "2026-03-01",
		Repeat:      "weekly",
		RepeatUntil: "2026-03-15",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Expected 3 rows (1st, 8th, 15th), got %d", len(created))
	}
	if created[2].Date != "2026-03-15" {
		t.Errorf("Expected last occurrence on repeat_until, got %s", created[2].Date)
	}
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	created, _ := svc.Create("org_1", &CreateInput{Title: "One off"})
	task := created[0]

	done, err := svc.Complete("org_1", task.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}

	_, err = svc.Complete("org_1", task.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error, got %v", err)
	}
}

func TestTaskTitleRequired(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	_, err := svc.Create("org_1", &CreateInput{Title: "   "})
	var valErr *apperrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected validation error for blank title, got %v", err)
	}
}

package projects

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
	CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		status TEXT NOT NULL,
		start_date INTEGER,
		end_date INTEGER,
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
	return NewService(NewRepository(db), stubClients{"cli_1": "org_1", "cli_2": "org_2"}), db
}

func TestCreateProject_Validation(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	if _, err := svc.Create("org_1", &CreateInput{ClientID: "cli_1"}); err == nil {
		t.Error("Expected error for missing name")
	}
	if _, err := svc.Create("org_1", &CreateInput{Name: "Remodel"}); err == nil {
		t.Error("Expected error for missing client")
	}
	if _, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_missing"}); err == nil {
		t.Error("Expected error for unknown client")
	}

	start := int64(2000)
	end := int64(1000)
	_, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_1", StartDate: &start, EndDate: &end})
	if err == nil || err.Error() != "End date must not precede start date" {
		t.Errorf("Expected date ordering error, got %v", err)
	}
}

func TestCreateProject_ClientScope(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	_, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_2"})
	var scopeErr *apperrors.ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error, got %v", err)
	}
}

func TestCompleteProject(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	project, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_1"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	if project.Status != "planned" {
		t.Errorf("Expected default status planned, got %s", project.Status)
	}
	if project.CompletedAt != nil {
		t.Error("New project should not have completed_at")
	}

	completed, err := svc.Complete("org_1", project.ID)
	if err != nil {
		t.Fatalf("Failed to complete project: %v", err)
	}
	if completed.Status != "completed" || completed.CompletedAt == nil {
		t.Errorf("Expected completed with timestamp, got %s %v", completed.Status, completed.CompletedAt)
	}

	_, err = svc.Complete("org_1", project.ID)
	var stateErr *apperrors.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("Expected state error on double complete, got %v", err)
	}
}

func TestUpdateProject_StatusTransition(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	project, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_1"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	status := "completed"
	updated, err := svc.Update("org_1", project.ID, &UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("Failed to update project: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Error("Update to completed should set completed_at")
	}

	if _, err := svc.Update("org_1", project.ID, &UpdateInput{}); err == nil {
		t.Error("Expected error for empty update payload")
	}

	bad := "archived"
	if _, err := svc.Update("org_1", project.ID, &UpdateInput{Status: &bad}); err == nil {
		t.Error("Expected error for invalid status")
	}
}

func TestCrossOrgProjectAccess(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	project, err := svc.Create("org_1", &CreateInput{Name: "Remodel", ClientID: "cli_1"})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}

	_, err = svc.Get("org_2", project.ID)
	var scopeErr *apperrors.ScopeError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error, got %v", err)
	}
	if scopeErr.Error() != "Project does not belong to your organization" {
		t.Errorf("Unexpected scope message: %s", scopeErr.Error())
	}

	if err := svc.Delete("org_2", project.ID); !errors.As(err, &scopeErr) {
		t.Fatalf("Expected scope error on delete, got %v", err)
	}
}

func TestListProjects_StatusFilter(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := svc.Create("org_1", &CreateInput{Name: name, ClientID: "cli_1"}); err != nil {
			t.Fatalf("Failed to create project %s: %v", name, err)
		}
	}
	project, _ := svc.Create("org_1", &CreateInput{Name: "D", ClientID: "cli_1"})
	if _, err := svc.Complete("org_1", project.ID); err != nil {
		t.Fatalf("Failed to complete project: %v", err)
	}

	completed, err := svc.List("org_1", "completed", "", 50, 0)
	if err != nil {
		t.Fatalf("Failed to list projects: %v", err)
	}
	if len(completed) != 1 {
		t.Errorf("Expected 1 completed project, got %d", len(completed))
	}

	if _, err := svc.List("org_1", "bogus", "", 50, 0); err == nil {
		t.Error("Expected error for invalid status filter")
	}
}

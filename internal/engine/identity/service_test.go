package identity

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"opsdesk/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}

	schema := `
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		phone TEXT DEFAULT '',
		address_line1 TEXT DEFAULT '',
		address_line2 TEXT DEFAULT '',
		city TEXT DEFAULT '',
		postal_code TEXT DEFAULT '',
		country TEXT DEFAULT '',
		timezone TEXT DEFAULT 'UTC',
		billing_account_id TEXT DEFAULT '',
		revenue_target REAL DEFAULT 0,
		client_count INTEGER DEFAULT 0,
		esignatures_sent INTEGER DEFAULT 0,
		esignature_reset_at INTEGER DEFAULT 0,
		metadata_completed INTEGER DEFAULT 0,
		owner_user_id TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE TABLE users (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL,
		email TEXT DEFAULT '',
		first_name TEXT DEFAULT '',
		last_name TEXT DEFAULT '',
		image_url TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		deleted_at INTEGER
	);
	CREATE TABLE memberships (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *repositories.MembershipRepository, *sql.DB) {
	db := setupTestDB(t)
	memberships := repositories.NewMembershipRepository(db)
	svc := NewService(
		repositories.NewOrganizationRepository(db),
		repositories.NewUserRepository(db),
		memberships,
	)
	return svc, memberships, db
}

func TestSyncOrgCreated_Idempotent(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	first, err := svc.SyncOrgCreated(&OrgPayload{ID: "clerk_org_1", Name: "Lawn Co"})
	if err != nil {
		t.Fatalf("First sync failed: %v", err)
	}

	second, err := svc.SyncOrgCreated(&OrgPayload{ID: "clerk_org_1", Name: "Lawn Co Renamed"})
	if err != nil {
		t.Fatalf("Duplicate sync failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Duplicate create must return the existing org, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "Lawn Co" {
		t.Errorf("Duplicate create must not mutate the existing org, got name %q", second.Name)
	}
}

func TestSyncOrgCreated_MembersAndOwner(t *testing.T) {
	svc, memberships, db := newTestService(t)
	defer db.Close()

	owner, err := svc.SyncUserCreated(&UserPayload{
		ID: "clerk_usr_1", FirstName: "Ann", LastName: "Lee",
		EmailAddresses: []EmailAddressPayload{{EmailAddress: "ann@example.com"}},
	})
	if err != nil {
		t.Fatalf("User sync failed: %v", err)
	}
	svc.SyncUserCreated(&UserPayload{ID: "clerk_usr_2", FirstName: "Bo"})

	org, err := svc.SyncOrgCreated(&OrgPayload{
		ID: "clerk_org_1", Name: "Lawn Co", Owner: "clerk_usr_1",
		Members: []MemberPayload{
			{UserID: "clerk_usr_1", Role: "member"},
			{UserID: "clerk_usr_2", Role: "member"},
			{UserID: "clerk_usr_missing", Role: "member"},
		},
	})
	if err != nil {
		t.Fatalf("Org sync failed: %v", err)
	}
	if org.OwnerUserID != owner.ID {
		t.Errorf("Expected owner %s, got %s", owner.ID, org.OwnerUserID)
	}

	members, _ := memberships.ListByOrg(org.ID)
	if len(members) != 2 {
		t.Fatalf("Expected 2 members (unknown skipped), got %d", len(members))
	}
	for _, m := range members {
		if m.UserID == owner.ID && m.Role != "admin" {
			t.Errorf("Owner must be admin, got %s", m.Role)
		}
	}
}

func TestSyncMissingTargetsAreNoOps(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	if err := svc.SyncOrgUpdated(&OrgPayload{ID: "clerk_org_missing", Name: "X"}); err != nil {
		t.Errorf("Update of missing org must not error: %v", err)
	}
	if err := svc.SyncOrgDeleted("clerk_org_missing"); err != nil {
		t.Errorf("Delete of missing org must not error: %v", err)
	}
	if err := svc.SyncUserUpdated(&UserPayload{ID: "clerk_usr_missing"}); err != nil {
		t.Errorf("Update of missing user must not error: %v", err)
	}
	if err := svc.SyncUserDeleted("clerk_usr_missing"); err != nil {
		t.Errorf("Delete of missing user must not error: %v", err)
	}
}

func TestSyncUserDeleted_RemovesMemberships(t *testing.T) {
	svc, memberships, db := newTestService(t)
	defer db.Close()

	user, _ := svc.SyncUserCreated(&UserPayload{ID: "clerk_usr_1"})
	org, _ := svc.SyncOrgCreated(&OrgPayload{
		ID: "clerk_org_1", Name: "Lawn Co",
		Members: []MemberPayload{{UserID: "clerk_usr_1", Role: "admin"}},
	})

	if err := svc.SyncUserDeleted("clerk_usr_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	m, _ := memberships.Get(org.ID, user.ID)
	if m != nil {
		t.Error("Expected membership to be removed with the user")
	}
}

func TestSyncMembershipCreated(t *testing.T) {
	svc, memberships, db := newTestService(t)
	defer db.Close()

	user, _ := svc.SyncUserCreated(&UserPayload{ID: "clerk_usr_1"})
	org, _ := svc.SyncOrgCreated(&OrgPayload{ID: "clerk_org_1", Name: "Lawn Co"})

	payload := &MembershipPayload{Organization: "clerk_org_1", UserID: "clerk_usr_1", Role: "owner"}
	if err := svc.SyncMembershipCreated(payload); err != nil {
		t.Fatalf("Membership sync failed: %v", err)
	}

	m, _ := memberships.Get(org.ID, user.ID)
	if m == nil {
		t.Fatal("Expected membership to exist")
	}
	if m.Role != "member" {
		t.Errorf("Unrecognized role must normalize to member, got %s", m.Role)
	}

	// Duplicate event is a no-op
	if err := svc.SyncMembershipCreated(payload); err != nil {
		t.Fatalf("Duplicate membership sync must not error: %v", err)
	}
	members, _ := memberships.ListByOrg(org.ID)
	if len(members) != 1 {
		t.Errorf("Expected 1 membership after duplicate event, got %d", len(members))
	}

	// Unknown targets are no-ops
	if err := svc.SyncMembershipCreated(&MembershipPayload{Organization: "clerk_org_missing", UserID: "clerk_usr_1"}); err != nil {
		t.Errorf("Membership for unknown org must not error: %v", err)
	}

	if err := svc.SyncMembershipDeleted(payload); err != nil {
		t.Fatalf("Membership delete failed: %v", err)
	}
	if m, _ := memberships.Get(org.ID, user.ID); m != nil {
		t.Error("Expected membership removed")
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"clerk_org_1"}`)
	sig := Sign("secret", payload)

	if !VerifySignature("secret", payload, sig) {
		t.Error("Expected valid signature to verify")
	}
	if VerifySignature("other", payload, sig) {
		t.Error("Expected wrong secret to fail")
	}
	if VerifySignature("secret", []byte("tampered"), sig) {
		t.Error("Expected tampered payload to fail")
	}
}

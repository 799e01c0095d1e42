package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	apiContext "opsdesk/internal/api/context"
	"opsdesk/internal/platform/auth"
	"opsdesk/internal/platform/repositories"
)

var orgRowColumns = []string{
	"id", "external_id", "name", "email", "phone", "address_line1", "address_line2", "city",
	"postal_code", "country", "timezone", "billing_account_id", "revenue_target", "client_count",
	"esignatures_sent", "esignature_reset_at", "metadata_completed", "owner_user_id",
	"created_at", "updated_at", "deleted_at",
}

func orgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgRowColumns).
		AddRow("org_123", "ext_org_123", "Test Org", "", "", "", "", "", "", "", "UTC",
			"", 0.0, 0, 0, 1234567890, false, "usr_owner", 1234567890, 1234567890, nil)
}

func requestWithClaims(orgID, userID string) *http.Request {
	req, _ := http.NewRequest("GET", "/", nil)
	claims := &auth.Claims{OrganizationID: orgID, UserID: userID}
	ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
	return req.WithContext(ctx)
}

func TestScopeMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	orgRepo := repositories.NewOrganizationRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	middleware := NewScopeMiddleware(orgRepo, membershipRepo)

	t.Run("Valid Member", func(t *testing.T) {
		req := requestWithClaims("org_123", "usr_1")

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(orgRow())
		mock.ExpectQuery("SELECT (.+) FROM memberships WHERE organization_id = (.+) AND user_id = ?").
			WithArgs("org_123", "usr_1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "created_at", "updated_at"}).
				AddRow("mem_1", "org_123", "usr_1", "admin", 1234567890, 1234567890))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			scope := ScopeFrom(r)
			if scope == nil {
				t.Fatal("Expected scope, got nil")
			}
			if scope.OrgID != "org_123" || scope.UserID != "usr_1" || scope.Role != "admin" {
				t.Errorf("Unexpected scope: %+v", scope)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Missing Claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("Org Not Found", func(t *testing.T) {
		req := requestWithClaims("org_999", "usr_1")

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Not A Member", func(t *testing.T) {
		req := requestWithClaims("org_123", "usr_outsider")

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(orgRow())
		mock.ExpectQuery("SELECT (.+) FROM memberships WHERE organization_id = (.+) AND user_id = ?").
			WithArgs("org_123", "usr_outsider").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})
}

func TestScopeMiddlewareOptional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	middleware := NewScopeMiddleware(
		repositories.NewOrganizationRepository(db),
		repositories.NewMembershipRepository(db),
	)

	t.Run("No Claims Passes Nil Scope", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		rr := httptest.NewRecorder()
		handler := middleware.HandleOptional(func(w http.ResponseWriter, r *http.Request) {
			if scope := ScopeFrom(r); scope != nil {
				t.Errorf("Expected nil scope, got %+v", scope)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Unresolvable Org Passes Nil Scope", func(t *testing.T) {
		req := requestWithClaims("org_999", "usr_1")

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.HandleOptional(func(w http.ResponseWriter, r *http.Request) {
			if scope := ScopeFrom(r); scope != nil {
				t.Errorf("Expected nil scope, got %+v", scope)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})
}

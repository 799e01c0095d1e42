package middleware

import (
	"context"
	"net/http"

	apiContext "opsdesk/internal/api/context"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/auth"
	"opsdesk/internal/platform/repositories"
)

// OrgScope is the tenant-isolation boundary threaded into every repository
// call. It is resolved fresh per request; membership is never cached across
// calls.
type OrgScope struct {
	OrgID  string
	UserID string
	Role   string
}

type ScopeMiddleware struct {
	orgRepo        *repositories.OrganizationRepository
	membershipRepo *repositories.MembershipRepository
}

func NewScopeMiddleware(orgRepo *repositories.OrganizationRepository, membershipRepo *repositories.MembershipRepository) *ScopeMiddleware {
	return &ScopeMiddleware{
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
	}
}

// Handle resolves the caller's active-organization claim into an OrgScope and
// rejects callers without a valid membership. Used by every mutation route.
func (m *ScopeMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		org, err := m.orgRepo.GetByID(claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load organization", nil)
			return
		}
		if org == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Organization not found", nil)
			return
		}

		membership, err := m.membershipRepo.Get(org.ID, claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to verify membership", nil)
			return
		}
		if membership == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Not a member of this organization", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Scope, &OrgScope{
			OrgID:  org.ID,
			UserID: claims.UserID,
			Role:   membership.Role,
		})

		next(w, r.WithContext(ctx))
	}
}

// HandleOptional resolves a scope when it can and passes a nil scope through
// otherwise. Stats and dashboard queries use this mode so unauthenticated or
// pre-onboarding callers get zeroed results rather than errors.
func (m *ScopeMiddleware) HandleOptional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok || claims.OrganizationID == "" {
			next(w, r)
			return
		}

		org, err := m.orgRepo.GetByID(claims.OrganizationID)
		if err != nil || org == nil {
			next(w, r)
			return
		}

		membership, err := m.membershipRepo.Get(org.ID, claims.UserID)
		if err != nil || membership == nil {
			next(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Scope, &OrgScope{
			OrgID:  org.ID,
			UserID: claims.UserID,
			Role:   membership.Role,
		})

		next(w, r.WithContext(ctx))
	}
}

// ScopeFrom extracts the resolved scope, nil when running in optional mode
// without a resolvable caller.
func ScopeFrom(r *http.Request) *OrgScope {
	scope, _ := r.Context().Value(apiContext.Scope).(*OrgScope)
	return scope
}

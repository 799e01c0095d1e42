package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
	"opsdesk/internal/platform/repositories"
)

type OrgHandler struct {
	orgs        *repositories.OrganizationRepository
	memberships *repositories.MembershipRepository
	audit       *audit.Logger
}

func NewOrgHandler(orgs *repositories.OrganizationRepository, memberships *repositories.MembershipRepository, auditLogger *audit.Logger) *OrgHandler {
	return &OrgHandler{orgs: orgs, memberships: memberships, audit: auditLogger}
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	org, err := h.orgs.GetByID(scope.OrgID)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// Update edits the org metadata used by billing and the dashboard.
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		Name              *string  `json:"name"`
		Email             *string  `json:"email"`
		Phone             *string  `json:"phone"`
		AddressLine1      *string  `json:"address_line1"`
		AddressLine2      *string  `json:"address_line2"`
		City              *string  `json:"city"`
		PostalCode        *string  `json:"postal_code"`
		Country           *string  `json:"country"`
		Timezone          *string  `json:"timezone"`
		RevenueTarget     *float64 `json:"revenue_target"`
		MetadataCompleted *bool    `json:"metadata_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	org, err := h.orgs.GetByID(scope.OrgID)
	if err != nil || org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Organization name is required", nil)
			return
		}
		org.Name = *req.Name
	}
	if req.Email != nil {
		org.Email = *req.Email
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.AddressLine1 != nil {
		org.AddressLine1 = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		org.AddressLine2 = *req.AddressLine2
	}
	if req.City != nil {
		org.City = *req.City
	}
	if req.PostalCode != nil {
		org.PostalCode = *req.PostalCode
	}
	if req.Country != nil {
		org.Country = *req.Country
	}
	if req.Timezone != nil {
		org.Timezone = *req.Timezone
	}
	if req.RevenueTarget != nil {
		if *req.RevenueTarget < 0 {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Revenue target must not be negative", nil)
			return
		}
		org.RevenueTarget = *req.RevenueTarget
	}
	if req.MetadataCompleted != nil {
		org.MetadataCompleted = *req.MetadataCompleted
	}

	if err := h.orgs.Update(org); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "org.update", "organization", org.ID, nil)
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	members, err := h.memberships.ListByOrg(scope.OrgID)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Delete soft-deletes the org. Owner only; admins can edit but not destroy.
func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	org, err := h.orgs.GetByID(scope.OrgID)
	if err != nil || org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}
	if org.OwnerUserID != scope.UserID {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Only the organization owner can delete it", nil)
		return
	}

	if err := h.memberships.DeleteByOrg(org.ID); err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if err := h.orgs.SoftDelete(org.ID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "org.delete", "organization", org.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

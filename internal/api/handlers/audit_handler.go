package handlers

import (
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type AuditHandler struct {
	logger *audit.Logger
}

func NewAuditHandler(logger *audit.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	entries, err := h.logger.ListByOrg(scope.OrgID, limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/emails"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type EmailHandler struct {
	service *emails.Service
	audit   *audit.Logger
}

func NewEmailHandler(service *emails.Service, auditLogger *audit.Logger) *EmailHandler {
	return &EmailHandler{service: service, audit: auditLogger}
}

func (h *EmailHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req emails.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "email.create", "email_message", message.ID, nil)
	writeJSON(w, http.StatusCreated, message)
}

func (h *EmailHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	message, err := h.service.Get(scope.OrgID, param(r, "message_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if message == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Email message not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)
	q := r.URL.Query()

	list, err := h.service.List(scope.OrgID, q.Get("client_id"), q.Get("thread_id"), q.Get("direction"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *EmailHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	threads, err := h.service.ListThreads(scope.OrgID, r.URL.Query().Get("client_id"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *EmailHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.service.UpdateStatus(scope.OrgID, param(r, "message_id"), req.Status)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (h *EmailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	messageID := param(r, "message_id")

	if err := h.service.Delete(scope.OrgID, messageID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "email.delete", "email_message", messageID, nil)
	w.WriteHeader(http.StatusNoContent)
}

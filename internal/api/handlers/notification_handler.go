package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/notifications"
	"opsdesk/internal/pkg/errors"
)

type NotificationHandler struct {
	service *notifications.Service
}

func NewNotificationHandler(service *notifications.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req notifications.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	notification, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, notification)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	list, err := h.service.List(scope.OrgID, scope.UserID, unreadOnly, limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	notification, err := h.service.MarkRead(scope.OrgID, param(r, "notification_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	notification, err := h.service.MarkUnread(scope.OrgID, param(r, "notification_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	count, err := h.service.MarkAllRead(scope.OrgID, scope.UserID)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked_read": count})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	if err := h.service.Delete(scope.OrgID, param(r, "notification_id")); err != nil {
		errors.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

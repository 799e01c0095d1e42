package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/tasks"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type TaskHandler struct {
	service *tasks.Service
	audit   *audit.Logger
}

func NewTaskHandler(service *tasks.Service, auditLogger *audit.Logger) *TaskHandler {
	return &TaskHandler{service: service, audit: auditLogger}
}

// Create returns every row the recurrence expanded into.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req tasks.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "task.create", "task", created[0].ID,
		map[string]interface{}{"count": len(created)})
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	task, err := h.service.Get(scope.OrgID, param(r, "task_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if task == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Task not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)
	q := r.URL.Query()

	list, err := h.service.List(scope.OrgID, q.Get("status"), q.Get("client_id"), q.Get("project_id"), q.Get("assignee_id"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req tasks.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.Update(scope.OrgID, param(r, "task_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "task.update", "task", task.ID, nil)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	task, err := h.service.Complete(scope.OrgID, param(r, "task_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "task.complete", "task", task.ID, nil)
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	taskID := param(r, "task_id")

	if err := h.service.Delete(scope.OrgID, taskID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "task.delete", "task", taskID, nil)
	w.WriteHeader(http.StatusNoContent)
}

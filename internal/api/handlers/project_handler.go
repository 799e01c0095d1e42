package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/projects"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type ProjectHandler struct {
	service *projects.Service
	audit   *audit.Logger
}

func NewProjectHandler(service *projects.Service, auditLogger *audit.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, audit: auditLogger}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req projects.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	project, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "project.create", "project", project.ID, nil)
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	project, err := h.service.Get(scope.OrgID, param(r, "project_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if project == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	list, err := h.service.List(scope.OrgID, r.URL.Query().Get("status"), r.URL.Query().Get("client_id"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req projects.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	project, err := h.service.Update(scope.OrgID, param(r, "project_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "project.update", "project", project.ID, nil)
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Complete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	project, err := h.service.Complete(scope.OrgID, param(r, "project_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "project.complete", "project", project.ID, nil)
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	projectID := param(r, "project_id")

	if err := h.service.Delete(scope.OrgID, projectID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "project.delete", "project", projectID, nil)
	w.WriteHeader(http.StatusNoContent)
}

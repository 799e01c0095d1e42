package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/clients"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type ClientHandler struct {
	service *clients.Service
	audit   *audit.Logger
}

func NewClientHandler(service *clients.Service, auditLogger *audit.Logger) *ClientHandler {
	return &ClientHandler{service: service, audit: auditLogger}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.CreateClientInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	client, err := h.service.CreateClient(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "client.create", "client", client.ID, nil)
	writeJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	client, err := h.service.GetClient(scope.OrgID, param(r, "client_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if client == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	list, err := h.service.ListClients(scope.OrgID, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.UpdateClientInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	client, err := h.service.UpdateClient(scope.OrgID, param(r, "client_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "client.update", "client", client.ID, nil)
	writeJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	clientID := param(r, "client_id")

	if err := h.service.DeleteClient(scope.OrgID, clientID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "client.delete", "client", clientID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Contacts

func (h *ClientHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contact, err := h.service.CreateContact(scope.OrgID, param(r, "client_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "contact.create", "contact", contact.ID, nil)
	writeJSON(w, http.StatusCreated, contact)
}

func (h *ClientHandler) BulkCreateContacts(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		Contacts []*clients.ContactInput `json:"contacts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.BulkCreateContacts(scope.OrgID, param(r, "client_id"), req.Contacts)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "contact.bulk_create", "client", param(r, "client_id"),
		map[string]interface{}{"count": len(created)})
	writeJSON(w, http.StatusCreated, created)
}

func (h *ClientHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	contacts, err := h.service.ListContacts(scope.OrgID, param(r, "client_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ClientHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.UpdateContactInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	contact, err := h.service.UpdateContact(scope.OrgID, param(r, "contact_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "contact.update", "contact", contact.ID, nil)
	writeJSON(w, http.StatusOK, contact)
}

func (h *ClientHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	contactID := param(r, "contact_id")

	if err := h.service.DeleteContact(scope.OrgID, contactID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "contact.delete", "contact", contactID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Properties

func (h *ClientHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	property, err := h.service.CreateProperty(scope.OrgID, param(r, "client_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "property.create", "property", property.ID, nil)
	writeJSON(w, http.StatusCreated, property)
}

func (h *ClientHandler) BulkCreateProperties(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		Properties []*clients.PropertyInput `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.BulkCreateProperties(scope.OrgID, param(r, "client_id"), req.Properties)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "property.bulk_create", "client", param(r, "client_id"),
		map[string]interface{}{"count": len(created)})
	writeJSON(w, http.StatusCreated, created)
}

func (h *ClientHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	properties, err := h.service.ListProperties(scope.OrgID, param(r, "client_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (h *ClientHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req clients.UpdatePropertyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	property, err := h.service.UpdateProperty(scope.OrgID, param(r, "property_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "property.update", "property", property.ID, nil)
	writeJSON(w, http.StatusOK, property)
}

func (h *ClientHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	propertyID := param(r, "property_id")

	if err := h.service.DeleteProperty(scope.OrgID, propertyID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "property.delete", "property", propertyID, nil)
	w.WriteHeader(http.StatusNoContent)
}

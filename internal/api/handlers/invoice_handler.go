package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/invoices"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type InvoiceHandler struct {
	service *invoices.Service
	audit   *audit.Logger
}

func NewInvoiceHandler(service *invoices.Service, auditLogger *audit.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: service, audit: auditLogger}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req invoices.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	invoice, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "invoice.create", "invoice", invoice.ID, nil)
	writeJSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	invoice, err := h.service.Get(scope.OrgID, param(r, "invoice_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if invoice == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Invoice not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	list, err := h.service.List(scope.OrgID, r.URL.Query().Get("status"), r.URL.Query().Get("client_id"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req invoices.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	invoice, err := h.service.Update(scope.OrgID, param(r, "invoice_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "invoice.update", "invoice", invoice.ID, nil)
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	invoice, err := h.service.Send(scope.OrgID, param(r, "invoice_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "invoice.send", "invoice", invoice.ID, nil)
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	invoice, err := h.service.Cancel(scope.OrgID, param(r, "invoice_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "invoice.cancel", "invoice", invoice.ID, nil)
	writeJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	invoiceID := param(r, "invoice_id")

	if err := h.service.Delete(scope.OrgID, invoiceID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "invoice.delete", "invoice", invoiceID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Line items

func (h *InvoiceHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req invoices.LineItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.AddLineItem(scope.OrgID, param(r, "invoice_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *InvoiceHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req invoices.UpdateLineItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateLineItem(scope.OrgID, param(r, "invoice_id"), param(r, "item_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InvoiceHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	if err := h.service.RemoveLineItem(scope.OrgID, param(r, "invoice_id"), param(r, "item_id")); err != nil {
		errors.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InvoiceHandler) DuplicateLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	item, err := h.service.DuplicateLineItem(scope.OrgID, param(r, "invoice_id"), param(r, "item_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *InvoiceHandler) ReorderLineItems(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ReorderLineItems(scope.OrgID, param(r, "invoice_id"), req.ItemIDs); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	invoice, err := h.service.Get(scope.OrgID, param(r, "invoice_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

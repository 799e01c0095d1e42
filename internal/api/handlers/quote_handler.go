package handlers

import (
	"encoding/json"
	"net/http"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/quotes"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type QuoteHandler struct {
	service *quotes.Service
	audit   *audit.Logger
}

func NewQuoteHandler(service *quotes.Service, auditLogger *audit.Logger) *QuoteHandler {
	return &QuoteHandler{service: service, audit: auditLogger}
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req quotes.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := h.service.Create(scope.OrgID, &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "quote.create", "quote", quote.ID, nil)
	writeJSON(w, http.StatusCreated, quote)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	quote, err := h.service.Get(scope.OrgID, param(r, "quote_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if quote == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Quote not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	limit, offset := pagination(r)

	list, err := h.service.List(scope.OrgID, r.URL.Query().Get("status"), r.URL.Query().Get("client_id"), limit, offset)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req quotes.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := h.service.Update(scope.OrgID, param(r, "quote_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "quote.update", "quote", quote.ID, nil)
	writeJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "quote.send", h.service.Send)
}

func (h *QuoteHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "quote.approve", h.service.Approve)
}

func (h *QuoteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "quote.decline", h.service.Decline)
}

func (h *QuoteHandler) Expire(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "quote.expire", h.service.Expire)
}

func (h *QuoteHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(orgID, id string) (*quotes.Quote, error)) {
	scope := middleware.ScopeFrom(r)

	quote, err := fn(scope.OrgID, param(r, "quote_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, action, "quote", quote.ID, nil)
	writeJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	quoteID := param(r, "quote_id")

	if err := h.service.Delete(scope.OrgID, quoteID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "quote.delete", "quote", quoteID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Line items

func (h *QuoteHandler) AddLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req quotes.LineItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.AddLineItem(scope.OrgID, param(r, "quote_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *QuoteHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req quotes.UpdateLineItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateLineItem(scope.OrgID, param(r, "quote_id"), param(r, "item_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *QuoteHandler) RemoveLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	if err := h.service.RemoveLineItem(scope.OrgID, param(r, "quote_id"), param(r, "item_id")); err != nil {
		errors.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuoteHandler) DuplicateLineItem(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	item, err := h.service.DuplicateLineItem(scope.OrgID, param(r, "quote_id"), param(r, "item_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *QuoteHandler) ReorderLineItems(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ReorderLineItems(scope.OrgID, param(r, "quote_id"), req.ItemIDs); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	quote, err := h.service.Get(scope.OrgID, param(r, "quote_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/payments"
	"opsdesk/internal/pkg/errors"
	"opsdesk/internal/platform/audit"
)

type PaymentHandler struct {
	service   *payments.Service
	audit     *audit.Logger
	payDomain string
}

func NewPaymentHandler(service *payments.Service, auditLogger *audit.Logger, payDomain string) *PaymentHandler {
	return &PaymentHandler{service: service, audit: auditLogger, payDomain: payDomain}
}

// Configure replaces the payment schedule of an invoice.
func (h *PaymentHandler) Configure(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	invoiceID := param(r, "invoice_id")

	var req struct {
		Payments []*payments.RowInput `json:"payments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rows, err := h.service.Configure(scope.OrgID, invoiceID, req.Payments)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "payment.configure", "invoice", invoiceID,
		map[string]interface{}{"count": len(rows)})
	writeJSON(w, http.StatusOK, rows)
}

func (h *PaymentHandler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	rows, err := h.service.ListByInvoice(scope.OrgID, param(r, "invoice_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	payment, err := h.service.Get(scope.OrgID, param(r, "payment_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if payment == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)

	var req payments.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.service.Update(scope.OrgID, param(r, "payment_id"), &req)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "payment.update", "payment", payment.ID, nil)
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) MarkAsSent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment.send", h.service.MarkAsSent)
}

func (h *PaymentHandler) MarkAsOverdue(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment.overdue", h.service.MarkAsOverdue)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "payment.cancel", h.service.Cancel)
}

func (h *PaymentHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(orgID, id string) (*payments.Payment, error)) {
	scope := middleware.ScopeFrom(r)

	payment, err := fn(scope.OrgID, param(r, "payment_id"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, action, "payment", payment.ID, nil)
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	scope := middleware.ScopeFrom(r)
	paymentID := param(r, "payment_id")

	if err := h.service.Remove(scope.OrgID, paymentID); err != nil {
		errors.WriteAppError(w, err)
		return
	}

	h.audit.Log(scope.OrgID, scope.UserID, "payment.remove", "payment", paymentID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Public payment surface. These routes carry no auth; the unguessable token
// is the credential.

func (h *PaymentHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetByPublicToken(param(r, "token"))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if payment == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) PublicComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StripeSessionID       string `json:"stripe_session_id"`
		StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.service.MarkPaidByPublicToken(param(r, "token"), req.StripeSessionID, req.StripePaymentIntentID)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) PublicQRCode(w http.ResponseWriter, r *http.Request) {
	token := param(r, "token")

	payment, err := h.service.GetByPublicToken(token)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	if payment == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Payment not found", nil)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	payURL := fmt.Sprintf("https://%s/pay/%s", h.payDomain, token)

	png, err := payments.GenerateQRCode(payURL, size)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

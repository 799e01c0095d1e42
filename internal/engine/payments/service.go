package payments

import (
	"math"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

// InvoiceSource is the slice of the invoice engine payments need: scope and
// total lookups, plus the paid transition once every payment clears.
type InvoiceSource interface {
	InvoiceOrgAndTotal(invoiceID string) (string, float64, bool, error)
	MarkInvoicePaid(invoiceID string, paidAt int64) error
}

type Service struct {
	repo     *Repository
	invoices InvoiceSource
}

func NewService(repo *Repository, invoices InvoiceSource) *Service {
	return &Service{repo: repo, invoices: invoices}
}

type RowInput struct {
	Amount  float64 `json:"amount"`
	DueDate *int64  `json:"due_date"`
}

// Configure replaces the payment schedule of an invoice. Paid rows are
// preserved untouched; the new rows plus the preserved paid rows must sum to
// the invoice total within the epsilon. Sort order continues after the
// preserved rows. The swap is atomic.
func (s *Service) Configure(orgID, invoiceID string, rows []*RowInput) ([]*Payment, error) {
	invoiceOrg, total, found, err := s.invoices.InvoiceOrgAndTotal(invoiceID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.Validation("Invoice not found")
	}
	if invoiceOrg != orgID {
		return nil, apperrors.Scope("Invoice")
	}
	if len(rows) == 0 {
		return nil, apperrors.Validation("At least one payment is required")
	}

	existing, err := s.repo.ListByInvoice(invoiceID)
	if err != nil {
		return nil, err
	}

	paidSum := 0.0
	maxPaidSort := -1
	for _, p := range existing {
		if p.Status == "paid" {
			paidSum += p.Amount
			if p.SortOrder > maxPaidSort {
				maxPaidSort = p.SortOrder
			}
		}
	}

	rowSum := 0.0
	for _, row := range rows {
		if row.Amount <= 0 {
			return nil, apperrors.Validation("Payment amounts must be positive")
		}
		rowSum += row.Amount
	}
	if math.Abs(rowSum+paidSum-total) > amountEpsilon {
		return nil, apperrors.Invariant("Payment amounts must equal invoice total")
	}

	now := time.Now().Unix()
	replacements := make([]*Payment, 0, len(rows))
	for i, row := range rows {
		token, err := GeneratePublicToken(s.repo)
		if err != nil {
			return nil, err
		}
		replacements = append(replacements, &Payment{
			ID:             "pay_" + uuid.NewString(),
			OrganizationID: orgID,
			InvoiceID:      invoiceID,
			Amount:         row.Amount,
			Status:         "pending",
			PublicToken:    token,
			SortOrder:      maxPaidSort + 1 + i,
			DueDate:        row.DueDate,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.Replace(invoiceID, replacements); err != nil {
		return nil, err
	}
	return s.repo.ListByInvoice(invoiceID)
}

func (s *Service) Get(orgID, id string) (*Payment, error) {
	payment, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, nil
	}
	if payment.OrganizationID != orgID {
		return nil, apperrors.Scope("Payment")
	}
	return payment, nil
}

func (s *Service) ListByInvoice(orgID, invoiceID string) ([]*Payment, error) {
	invoiceOrg, _, found, err := s.invoices.InvoiceOrgAndTotal(invoiceID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.Validation("Invoice not found")
	}
	if invoiceOrg != orgID {
		return nil, apperrors.Scope("Invoice")
	}
	return s.repo.ListByInvoice(invoiceID)
}

func (s *Service) List(orgID, status string, limit, offset int) ([]*Payment, error) {
	return s.repo.List(orgID, status, limit, offset)
}

type UpdateInput struct {
	Amount  *float64 `json:"amount"`
	DueDate *int64   `json:"due_date"`
}

func (s *Service) Update(orgID, id string, input *UpdateInput) (*Payment, error) {
	if input.Amount == nil && input.DueDate == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	payment, err := s.requirePayment(orgID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == "paid" {
		return nil, apperrors.State("Cannot update a paid payment")
	}

	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, apperrors.Validation("Payment amounts must be positive")
		}
		payment.Amount = *input.Amount
	}
	if input.DueDate != nil {
		payment.DueDate = input.DueDate
	}

	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) MarkAsSent(orgID, id string) (*Payment, error) {
	payment, err := s.requirePayment(orgID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == "paid" {
		return nil, apperrors.State("Cannot send a paid payment")
	}
	if payment.Status != "pending" {
		return nil, apperrors.State("Only pending payments can be sent")
	}

	payment.Status = "sent"
	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) MarkAsOverdue(orgID, id string) (*Payment, error) {
	payment, err := s.requirePayment(orgID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == "paid" {
		return nil, apperrors.State("Cannot mark a paid payment overdue")
	}
	if payment.Status != "sent" {
		return nil, apperrors.State("Only sent payments can go overdue")
	}

	payment.Status = "overdue"
	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Cancel(orgID, id string) (*Payment, error) {
	payment, err := s.requirePayment(orgID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status == "paid" {
		return nil, apperrors.State("Cannot cancel a paid payment")
	}

	payment.Status = "cancelled"
	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Remove(orgID, id string) error {
	payment, err := s.requirePayment(orgID, id)
	if err != nil {
		return err
	}
	if payment.Status == "paid" {
		return apperrors.State("Cannot remove a paid payment")
	}
	return s.repo.Delete(payment.ID)
}

// GetByPublicToken serves the unauthenticated payment page.
func (s *Service) GetByPublicToken(token string) (*Payment, error) {
	return s.repo.GetByPublicToken(token)
}

// MarkPaidByPublicToken records a completed payment. Idempotent: a payment
// that is already paid returns success with its original paid_at and stripe
// references untouched. Once the last payment of an invoice clears, the
// invoice itself moves to paid.
func (s *Service) MarkPaidByPublicToken(token, stripeSessionID, stripePaymentIntentID string) (*Payment, error) {
	payment, err := s.repo.GetByPublicToken(token)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.Validation("Payment not found")
	}
	if payment.Status == "paid" {
		return payment, nil
	}
	if payment.Status == "cancelled" {
		return nil, apperrors.State("Cannot complete a cancelled payment")
	}

	now := time.Now().Unix()
	payment.Status = "paid"
	payment.PaidAt = &now
	payment.StripeSessionID = stripeSessionID
	payment.StripePaymentIntentID = stripePaymentIntentID
	if err := s.repo.Update(payment); err != nil {
		return nil, err
	}

	allPaid, err := s.repo.AllPaid(payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	if allPaid {
		if err := s.invoices.MarkInvoicePaid(payment.InvoiceID, now); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

func (s *Service) requirePayment(orgID, id string) (*Payment, error) {
	payment, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperrors.Validation("Payment not found")
	}
	if payment.OrganizationID != orgID {
		return nil, apperrors.Scope("Payment")
	}
	return payment, nil
}

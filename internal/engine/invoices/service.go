package invoices

import (
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

type ClientResolver interface {
	ClientOrg(clientID string) (string, error)
}

type Service struct {
	repo    *Repository
	clients ClientResolver
}

func NewService(repo *Repository, clients ClientResolver) *Service {
	return &Service{repo: repo, clients: clients}
}

type CreateInput struct {
	ClientID   string  `json:"client_id"`
	Number     string  `json:"number"`
	Tax        float64 `json:"tax"`
	IssuedDate *int64  `json:"issued_date"`
	DueDate    *int64  `json:"due_date"`
}

func (s *Service) Create(orgID string, input *CreateInput) (*Invoice, error) {
	if input.ClientID == "" {
		return nil, apperrors.Validation("Invoice requires a client")
	}
	if input.Tax < 0 {
		return nil, apperrors.Validation("Tax must not be negative")
	}

	clientOrg, err := s.clients.ClientOrg(input.ClientID)
	if err != nil {
		return nil, err
	}
	if clientOrg == "" {
		return nil, apperrors.Validation("Client not found")
	}
	if clientOrg != orgID {
		return nil, apperrors.Scope("Client")
	}

	now := time.Now().Unix()
	invoice := &Invoice{
		ID:             "inv_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       input.ClientID,
		Number:         input.Number,
		Status:         "draft",
		Tax:            input.Tax,
		Total:          input.Tax,
		IssuedDate:     input.IssuedDate,
		DueDate:        input.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) Get(orgID, id string) (*Invoice, error) {
	invoice, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}
	if invoice.OrganizationID != orgID {
		return nil, apperrors.Scope("Invoice")
	}

	items, err := s.repo.ListLineItems(id)
	if err != nil {
		return nil, err
	}
	invoice.LineItems = items
	return invoice, nil
}

func (s *Service) List(orgID, status, clientID string, limit, offset int) ([]*Invoice, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperrors.Validation("Invalid invoice status: %s", status)
	}
	return s.repo.List(orgID, status, clientID, limit, offset)
}

type UpdateInput struct {
	Number     *string  `json:"number"`
	Tax        *float64 `json:"tax"`
	IssuedDate *int64   `json:"issued_date"`
	DueDate    *int64   `json:"due_date"`
}

func (s *Service) Update(orgID, id string, input *UpdateInput) (*Invoice, error) {
	if input.Number == nil && input.Tax == nil && input.IssuedDate == nil && input.DueDate == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	invoice, err := s.requireInvoice(orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == "paid" {
		return nil, apperrors.State("Cannot update a paid invoice")
	}

	if input.Number != nil {
		invoice.Number = *input.Number
	}
	if input.Tax != nil {
		if *input.Tax < 0 {
			return nil, apperrors.Validation("Tax must not be negative")
		}
		invoice.Tax = *input.Tax
		invoice.Total = invoice.Subtotal + invoice.Tax
	}
	if input.IssuedDate != nil {
		invoice.IssuedDate = input.IssuedDate
	}
	if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}

	if err := s.repo.Update(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) Send(orgID, id string) (*Invoice, error) {
	invoice, err := s.requireInvoice(orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != "draft" {
		return nil, apperrors.State("Only draft invoices can be sent")
	}

	invoice.Status = "sent"
	if invoice.IssuedDate == nil {
		now := time.Now().Unix()
		invoice.IssuedDate = &now
	}
	if err := s.repo.Update(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) Cancel(orgID, id string) (*Invoice, error) {
	invoice, err := s.requireInvoice(orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == "paid" {
		return nil, apperrors.State("Cannot cancel a paid invoice")
	}

	invoice.Status = "cancelled"
	if err := s.repo.Update(invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Delete refuses paid invoices: removing them would corrupt financial history.
func (s *Service) Delete(orgID, id string) error {
	invoice, err := s.requireInvoice(orgID, id)
	if err != nil {
		return err
	}
	if invoice.Status == "paid" {
		return apperrors.State("Cannot delete a paid invoice")
	}
	return s.repo.Delete(id)
}

// Line items

type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (s *Service) AddLineItem(orgID, invoiceID string, input *LineItemInput) (*LineItem, error) {
	invoice, err := s.requireInvoice(orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == "paid" {
		return nil, apperrors.State("Cannot update a paid invoice")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.Validation("Line item description is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be positive")
	}
	if input.UnitPrice < 0 {
		return nil, apperrors.Validation("Unit price must not be negative")
	}

	maxSort, err := s.repo.MaxSortOrder(invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	item := &LineItem{
		ID:          "ili_" + uuid.NewString(),
		InvoiceID:   invoiceID,
		Description: strings.TrimSpace(input.Description),
		Quantity:    input.Quantity,
		UnitPrice:   input.UnitPrice,
		Total:       input.Quantity * input.UnitPrice,
		SortOrder:   maxSort + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateLineItem(item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(invoice); err != nil {
		return nil, err
	}
	return item, nil
}

type UpdateLineItemInput struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
}

// UpdateLineItem recomputes the derived total on every touch of quantity or
// unit price; a partial update uses the stored value for the other factor.
func (s *Service) UpdateLineItem(orgID, invoiceID, itemID string, input *UpdateLineItemInput) (*LineItem, error) {
	if input.Description == nil && input.Quantity == nil && input.UnitPrice == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	invoice, err := s.requireInvoice(orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == "paid" {
		return nil, apperrors.State("Cannot update a paid invoice")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.InvoiceID != invoiceID {
		return nil, apperrors.Validation("Line item not found")
	}

	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			return nil, apperrors.Validation("Line item description is required")
		}
		item.Description = desc
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, apperrors.Validation("Quantity must be positive")
		}
		item.Quantity = *input.Quantity
	}
	if input.UnitPrice != nil {
		if *input.UnitPrice < 0 {
			return nil, apperrors.Validation("Unit price must not be negative")
		}
		item.UnitPrice = *input.UnitPrice
	}
	item.Total = item.Quantity * item.UnitPrice

	if err := s.repo.UpdateLineItem(item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(invoice); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) RemoveLineItem(orgID, invoiceID, itemID string) error {
	invoice, err := s.requireInvoice(orgID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == "paid" {
		return apperrors.State("Cannot update a paid invoice")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.InvoiceID != invoiceID {
		return apperrors.Validation("Line item not found")
	}

	if err := s.repo.DeleteLineItem(itemID); err != nil {
		return err
	}
	return s.recalculateTotals(invoice)
}

// DuplicateLineItem copies every field, marks the description as a copy and
// places the new row after the current maximum sort order.
func (s *Service) DuplicateLineItem(orgID, invoiceID, itemID string) (*LineItem, error) {
	invoice, err := s.requireInvoice(orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == "paid" {
		return nil, apperrors.State("Cannot update a paid invoice")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.InvoiceID != invoiceID {
		return nil, apperrors.Validation("Line item not found")
	}

	maxSort, err := s.repo.MaxSortOrder(invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	copy := &LineItem{
		ID:          "ili_" + uuid.NewString(),
		InvoiceID:   invoiceID,
		Description: item.Description + " (Copy)",
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Total:       item.Quantity * item.UnitPrice,
		SortOrder:   maxSort + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateLineItem(copy); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(invoice); err != nil {
		return nil, err
	}
	return copy, nil
}

// ReorderLineItems rewrites sort_order to the index of each id in the given
// list. The parent invoice is scope-checked once; ids not on the invoice are
// ignored by the constrained update.
func (s *Service) ReorderLineItems(orgID, invoiceID string, orderedIDs []string) error {
	invoice, err := s.requireInvoice(orgID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == "paid" {
		return apperrors.State("Cannot update a paid invoice")
	}
	if len(orderedIDs) == 0 {
		return apperrors.Validation("No line item order given")
	}

	order := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		order[id] = i
	}
	return s.repo.SetSortOrders(invoiceID, order)
}

func (s *Service) requireInvoice(orgID, id string) (*Invoice, error) {
	invoice, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperrors.Validation("Invoice not found")
	}
	if invoice.OrganizationID != orgID {
		return nil, apperrors.Scope("Invoice")
	}
	return invoice, nil
}

func (s *Service) recalculateTotals(invoice *Invoice) error {
	items, err := s.repo.ListLineItems(invoice.ID)
	if err != nil {
		return err
	}

	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Total
	}
	invoice.Subtotal = subtotal
	invoice.Total = subtotal + invoice.Tax
	return s.repo.Update(invoice)
}

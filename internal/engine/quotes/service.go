package quotes

import (
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

type ClientResolver interface {
	ClientOrg(clientID string) (string, error)
}

// ESignatureCounter tracks quote sends against the org usage counters.
type ESignatureCounter interface {
	IncrementESignatures(orgID string) error
}

type Service struct {
	repo       *Repository
	clients    ClientResolver
	signatures ESignatureCounter
}

func NewService(repo *Repository, clients ClientResolver, signatures ESignatureCounter) *Service {
	return &Service{repo: repo, clients: clients, signatures: signatures}
}

type CreateInput struct {
	ClientID string  `json:"client_id"`
	Title    string  `json:"title"`
	Tax      float64 `json:"tax"`
}

func (s *Service) Create(orgID string, input *CreateInput) (*Quote, error) {
	if input.ClientID == "" {
		return nil, apperrors.Validation("Quote requires a client")
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
	quote := &Quote{
		ID:             "qot_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       input.ClientID,
		Title:          strings.TrimSpace(input.Title),
		Status:         "draft",
		Tax:            input.Tax,
		Total:          input.Tax,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) Get(orgID, id string) (*Quote, error) {
	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, nil
	}
	if quote.OrganizationID != orgID {
		return nil, apperrors.Scope("Quote")
	}

	items, err := s.repo.ListLineItems(id)
	if err != nil {
		return nil, err
	}
	quote.LineItems = items
	return quote, nil
}

func (s *Service) List(orgID, status, clientID string, limit, offset int) ([]*Quote, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperrors.Validation("Invalid quote status: %s", status)
	}
	return s.repo.List(orgID, status, clientID, limit, offset)
}

type UpdateInput struct {
	Title *string  `json:"title"`
	Tax   *float64 `json:"tax"`
}

func (s *Service) Update(orgID, id string, input *UpdateInput) (*Quote, error) {
	if input.Title == nil && input.Tax == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status == "approved" {
		return nil, apperrors.State("Cannot update an approved quote")
	}

	if input.Title != nil {
		quote.Title = strings.TrimSpace(*input.Title)
	}
	if input.Tax != nil {
		if *input.Tax < 0 {
			return nil, apperrors.Validation("Tax must not be negative")
		}
		quote.Tax = *input.Tax
		quote.Total = quote.Subtotal + quote.Tax
	}

	if err := s.repo.Update(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// Send marks a draft quote sent and counts one e-signature against the org.
func (s *Service) Send(orgID, id string) (*Quote, error) {
	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != "draft" {
		return nil, apperrors.State("Only draft quotes can be sent")
	}

	quote.Status = "sent"
	if err := s.repo.Update(quote); err != nil {
		return nil, err
	}
	if err := s.signatures.IncrementESignatures(orgID); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) Approve(orgID, id string) (*Quote, error) {
	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status == "approved" {
		return nil, apperrors.State("Quote is already approved")
	}
	if quote.Status != "sent" {
		return nil, apperrors.State("Only sent quotes can be approved")
	}

	now := time.Now().Unix()
	quote.Status = "approved"
	quote.ApprovedAt = &now
	if err := s.repo.Update(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) Decline(orgID, id string) (*Quote, error) {
	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != "sent" {
		return nil, apperrors.State("Only sent quotes can be declined")
	}

	quote.Status = "declined"
	if err := s.repo.Update(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) Expire(orgID, id string) (*Quote, error) {
	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != "sent" {
		return nil, apperrors.State("Only sent quotes can expire")
	}

	quote.Status = "expired"
	if err := s.repo.Update(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) Delete(orgID, id string) error {
	quote, err := s.requireQuote(orgID, id)
	if err != nil {
		return err
	}
	if quote.Status == "approved" {
		return apperrors.State("Cannot delete an approved quote")
	}
	return s.repo.Delete(id)
}

// Line items

type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

func (s *Service) AddLineItem(orgID, quoteID string, input *LineItemInput) (*LineItem, error) {
	quote, err := s.requireQuote(orgID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status == "approved" {
		return nil, apperrors.State("Cannot update an approved quote")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.Validation("Line item description is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be positive")
	}
	if input.Rate < 0 {
		return nil, apperrors.Validation("Rate must not be negative")
	}

	maxSort, err := s.repo.MaxSortOrder(quoteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	item := &LineItem{
		ID:          "qli_" + uuid.NewString(),
		QuoteID:     quoteID,
		Description: strings.TrimSpace(input.Description),
		Quantity:    input.Quantity,
		Rate:        input.Rate,
		Amount:      input.Quantity * input.Rate,
		SortOrder:   maxSort + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateLineItem(item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(quote); err != nil {
		return nil, err
	}
	return item, nil
}

type UpdateLineItemInput struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Rate        *float64 `json:"rate"`
}

// UpdateLineItem recomputes the derived amount on every touch of quantity or
// rate; a partial update uses the stored value for the other factor.
func (s *Service) UpdateLineItem(orgID, quoteID, itemID string, input *UpdateLineItemInput) (*LineItem, error) {
	if input.Description == nil && input.Quantity == nil && input.Rate == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	quote, err := s.requireQuote(orgID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status == "approved" {
		return nil, apperrors.State("Cannot update an approved quote")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.QuoteID != quoteID {
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
	if input.Rate != nil {
		if *input.Rate < 0 {
			return nil, apperrors.Validation("Rate must not be negative")
		}
		item.Rate = *input.Rate
	}
	item.Amount = item.Quantity * item.Rate

	if err := s.repo.UpdateLineItem(item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(quote); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) RemoveLineItem(orgID, quoteID, itemID string) error {
	quote, err := s.requireQuote(orgID, quoteID)
	if err != nil {
		return err
	}
	if quote.Status == "approved" {
		return apperrors.State("Cannot update an approved quote")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.QuoteID != quoteID {
		return apperrors.Validation("Line item not found")
	}

	if err := s.repo.DeleteLineItem(itemID); err != nil {
		return err
	}
	return s.recalculateTotals(quote)
}

// DuplicateLineItem copies every field, marks the description as a copy and
// places the new row after the current maximum sort order.
func (s *Service) DuplicateLineItem(orgID, quoteID, itemID string) (*LineItem, error) {
	quote, err := s.requireQuote(orgID, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status == "approved" {
		return nil, apperrors.State("Cannot update an approved quote")
	}

	item, err := s.repo.GetLineItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.QuoteID != quoteID {
		return nil, apperrors.Validation("Line item not found")
	}

	maxSort, err := s.repo.MaxSortOrder(quoteID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	copy := &LineItem{
		ID:          "qli_" + uuid.NewString(),
		QuoteID:     quoteID,
		Description: item.Description + " (Copy)",
		Quantity:    item.Quantity,
		Rate:        item.Rate,
		Amount:      item.Quantity * item.Rate,
		SortOrder:   maxSort + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateLineItem(copy); err != nil {
		return nil, err
	}
	if err := s.recalculateTotals(quote); err != nil {
		return nil, err
	}
	return copy, nil
}

// ReorderLineItems rewrites sort_order to the index of each id in the given
// list. The parent quote is scope-checked once; ids not on the quote are
// ignored by the constrained update.
func (s *Service) ReorderLineItems(orgID, quoteID string, orderedIDs []string) error {
	quote, err := s.requireQuote(orgID, quoteID)
	if err != nil {
		return err
	}
	if quote.Status == "approved" {
		return apperrors.State("Cannot update an approved quote")
	}
	if len(orderedIDs) == 0 {
		return apperrors.Validation("No line item order given")
	}

	order := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		order[id] = i
	}
	return s.repo.SetSortOrders(quoteID, order)
}

func (s *Service) requireQuote(orgID, id string) (*Quote, error) {
	quote, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, apperrors.Validation("Quote not found")
	}
	if quote.OrganizationID != orgID {
		return nil, apperrors.Scope("Quote")
	}
	return quote, nil
}

func (s *Service) recalculateTotals(quote *Quote) error {
	items, err := s.repo.ListLineItems(quote.ID)
	if err != nil {
		return err
	}

	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Amount
	}
	quote.Subtotal = subtotal
	quote.Total = subtotal + quote.Tax
	return s.repo.Update(quote)
}

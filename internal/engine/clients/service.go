package clients

import (
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

// UsageCounter keeps the organization's client counter in step with the
// clients table.
type UsageCounter interface {
	AdjustClientCount(orgID string, delta int) error
}

type Service struct {
	repo    *Repository
	counter UsageCounter
}

func NewService(repo *Repository, counter UsageCounter) *Service {
	return &Service{repo: repo, counter: counter}
}

type CreateClientInput struct {
	CompanyName string `json:"company_name"`
	Status      string `json:"status"`
	LeadSource  string `json:"lead_source"`
}

func (s *Service) CreateClient(orgID string, input *CreateClientInput) (*Client, error) {
	name := strings.TrimSpace(input.CompanyName)
	if name == "" {
		return nil, apperrors.Validation("Company name is required")
	}

	status := input.Status
	if status == "" {
		status = "lead"
	}
	if !validStatuses[status] {
		return nil, apperrors.Validation("Invalid client status: %s", status)
	}

	now := time.Now().Unix()
	client := &Client{
		ID:             "cli_" + uuid.NewString(),
		OrganizationID: orgID,
		CompanyName:    name,
		Status:         status,
		LeadSource:     input.LeadSource,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(client); err != nil {
		return nil, err
	}
	if s.counter != nil {
		s.counter.AdjustClientCount(orgID, 1)
	}
	return client, nil
}

// GetClient fails loudly on a cross-organization id instead of pretending the
// record does not exist; an absent record returns nil.
func (s *Service) GetClient(orgID, id string) (*Client, error) {
	client, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	if client.OrganizationID != orgID {
		return nil, apperrors.Scope("Client")
	}
	return client, nil
}

func (s *Service) ListClients(orgID, status string, limit, offset int) ([]*Client, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperrors.Validation("Invalid client status: %s", status)
	}
	return s.repo.List(orgID, status, limit, offset)
}

type UpdateClientInput struct {
	CompanyName *string `json:"company_name"`
	Status      *string `json:"status"`
	LeadSource  *string `json:"lead_source"`
}

func (s *Service) UpdateClient(orgID, id string, input *UpdateClientInput) (*Client, error) {
	if input.CompanyName == nil && input.Status == nil && input.LeadSource == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	client, err := s.GetClient(orgID, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperrors.Validation("Client not found")
	}

	if input.CompanyName != nil {
		name := strings.TrimSpace(*input.CompanyName)
		if name == "" {
			return nil, apperrors.Validation("Company name is required")
		}
		client.CompanyName = name
	}
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			return nil, apperrors.Validation("Invalid client status: %s", *input.Status)
		}
		client.Status = *input.Status
	}
	if input.LeadSource != nil {
		client.LeadSource = *input.LeadSource
	}

	if err := s.repo.Update(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) DeleteClient(orgID, id string) error {
	client, err := s.GetClient(orgID, id)
	if err != nil {
		return err
	}
	if client == nil {
		return apperrors.Validation("Client not found")
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if s.counter != nil {
		s.counter.AdjustClientCount(orgID, -1)
	}
	return nil
}

// Contacts

type ContactInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Title     string `json:"title"`
	IsPrimary bool   `json:"is_primary"`
}

func (s *Service) CreateContact(orgID, clientID string, input *ContactInput) (*Contact, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("Contact name is required")
	}

	now := time.Now().Unix()
	contact := &Contact{
		ID:             "cct_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       clientID,
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		Phone:          input.Phone,
		Title:          input.Title,
		IsPrimary:      input.IsPrimary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateContact(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) BulkCreateContacts(orgID, clientID string, inputs []*ContactInput) ([]*Contact, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}

	primaries := 0
	for _, input := range inputs {
		if strings.TrimSpace(input.Name) == "" {
			return nil, apperrors.Validation("Contact name is required")
		}
		if input.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, apperrors.Invariant("Only one contact can be marked as primary")
	}

	now := time.Now().Unix()
	contacts := make([]*Contact, 0, len(inputs))
	for _, input := range inputs {
		contacts = append(contacts, &Contact{
			ID:             "cct_" + uuid.NewString(),
			OrganizationID: orgID,
			ClientID:       clientID,
			Name:           strings.TrimSpace(input.Name),
			Email:          input.Email,
			Phone:          input.Phone,
			Title:          input.Title,
			IsPrimary:      input.IsPrimary,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.BulkCreateContacts(contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

type UpdateContactInput struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Title     *string `json:"title"`
	IsPrimary *bool   `json:"is_primary"`
}

func (s *Service) UpdateContact(orgID, id string, input *UpdateContactInput) (*Contact, error) {
	if input.Name == nil && input.Email == nil && input.Phone == nil && input.Title == nil && input.IsPrimary == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	contact, err := s.repo.GetContactByID(id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, apperrors.Validation("Contact not found")
	}
	if contact.OrganizationID != orgID {
		return nil, apperrors.Scope("Contact")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("Contact name is required")
		}
		contact.Name = name
	}
	if input.Email != nil {
		contact.Email = *input.Email
	}
	if input.Phone != nil {
		contact.Phone = *input.Phone
	}
	if input.Title != nil {
		contact.Title = *input.Title
	}
	if input.IsPrimary != nil {
		contact.IsPrimary = *input.IsPrimary
	}

	if err := s.repo.UpdateContact(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *Service) ListContacts(orgID, clientID string) ([]*Contact, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListContacts(clientID)
}

func (s *Service) DeleteContact(orgID, id string) error {
	contact, err := s.repo.GetContactByID(id)
	if err != nil {
		return err
	}
	if contact == nil {
		return apperrors.Validation("Contact not found")
	}
	if contact.OrganizationID != orgID {
		return apperrors.Scope("Contact")
	}
	return s.repo.DeleteContact(id)
}

// Properties

type PropertyInput struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsPrimary    bool   `json:"is_primary"`
}

func (s *Service) CreateProperty(orgID, clientID string, input *PropertyInput) (*Property, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.AddressLine1) == "" {
		return nil, apperrors.Validation("Property address is required")
	}

	now := time.Now().Unix()
	property := &Property{
		ID:             "prp_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       clientID,
		AddressLine1:   strings.TrimSpace(input.AddressLine1),
		AddressLine2:   input.AddressLine2,
		City:           input.City,
		PostalCode:     input.PostalCode,
		Country:        input.Country,
		IsPrimary:      input.IsPrimary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateProperty(property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *Service) BulkCreateProperties(orgID, clientID string, inputs []*PropertyInput) ([]*Property, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}

	primaries := 0
	for _, input := range inputs {
		if strings.TrimSpace(input.AddressLine1) == "" {
			return nil, apperrors.Validation("Property address is required")
		}
		if input.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, apperrors.Invariant("Only one property can be marked as primary")
	}

	now := time.Now().Unix()
	properties := make([]*Property, 0, len(inputs))
	for _, input := range inputs {
		properties = append(properties, &Property{
			ID:             "prp_" + uuid.NewString(),
			OrganizationID: orgID,
			ClientID:       clientID,
			AddressLine1:   strings.TrimSpace(input.AddressLine1),
			AddressLine2:   input.AddressLine2,
			City:           input.City,
			PostalCode:     input.PostalCode,
			Country:        input.Country,
			IsPrimary:      input.IsPrimary,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.BulkCreateProperties(properties); err != nil {
		return nil, err
	}
	return properties, nil
}

type UpdatePropertyInput struct {
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	IsPrimary    *bool   `json:"is_primary"`
}

func (s *Service) UpdateProperty(orgID, id string, input *UpdatePropertyInput) (*Property, error) {
	if input.AddressLine1 == nil && input.AddressLine2 == nil && input.City == nil &&
		input.PostalCode == nil && input.Country == nil && input.IsPrimary == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	property, err := s.repo.GetPropertyByID(id)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, apperrors.Validation("Property not found")
	}
	if property.OrganizationID != orgID {
		return nil, apperrors.Scope("Property")
	}

	if input.AddressLine1 != nil {
		addr := strings.TrimSpace(*input.AddressLine1)
		if addr == "" {
			return nil, apperrors.Validation("Property address is required")
		}
		property.AddressLine1 = addr
	}
	if input.AddressLine2 != nil {
		property.AddressLine2 = *input.AddressLine2
	}
	if input.City != nil {
		property.City = *input.City
	}
	if input.PostalCode != nil {
		property.PostalCode = *input.PostalCode
	}
	if input.Country != nil {
		property.Country = *input.Country
	}
	if input.IsPrimary != nil {
		property.IsPrimary = *input.IsPrimary
	}

	if err := s.repo.UpdateProperty(property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *Service) ListProperties(orgID, clientID string) ([]*Property, error) {
	if _, err := s.requireClient(orgID, clientID); err != nil {
		return nil, err
	}
	return s.repo.ListProperties(clientID)
}

func (s *Service) DeleteProperty(orgID, id string) error {
	property, err := s.repo.GetPropertyByID(id)
	if err != nil {
		return err
	}
	if property == nil {
		return apperrors.Validation("Property not found")
	}
	if property.OrganizationID != orgID {
		return apperrors.Scope("Property")
	}
	return s.repo.DeleteProperty(id)
}

func (s *Service) requireClient(orgID, clientID string) (*Client, error) {
	client, err := s.repo.GetByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperrors.Validation("Client not found")
	}
	if client.OrganizationID != orgID {
		return nil, apperrors.Scope("Client")
	}
	return client, nil
}

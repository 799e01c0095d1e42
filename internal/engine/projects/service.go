package projects

import (
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

// ClientResolver reports which organization a client belongs to, "" when the
// client does not exist.
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
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	StartDate   *int64 `json:"start_date"`
	EndDate     *int64 `json:"end_date"`
}

func (s *Service) Create(orgID string, input *CreateInput) (*Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.Validation("Project name is required")
	}
	if input.ClientID == "" {
		return nil, apperrors.Validation("Project requires a client")
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

	status := input.Status
	if status == "" {
		status = "planned"
	}
	if !validStatuses[status] {
		return nil, apperrors.Validation("Invalid project status: %s", status)
	}

	if input.StartDate != nil && input.EndDate != nil && *input.EndDate < *input.StartDate {
		return nil, apperrors.Validation("End date must not precede start date")
	}

	now := time.Now().Unix()
	project := &Project{
		ID:             "prj_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       input.ClientID,
		Name:           name,
		Description:    input.Description,
		Status:         status,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == "completed" {
		project.CompletedAt = &now
	}

	if err := s.repo.Create(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Get(orgID, id string) (*Project, error) {
	project, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}
	if project.OrganizationID != orgID {
		return nil, apperrors.Scope("Project")
	}
	return project, nil
}

func (s *Service) List(orgID, status, clientID string, limit, offset int) ([]*Project, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperrors.Validation("Invalid project status: %s", status)
	}
	return s.repo.List(orgID, status, clientID, limit, offset)
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	StartDate   *int64  `json:"start_date"`
	EndDate     *int64  `json:"end_date"`
}

func (s *Service) Update(orgID, id string, input *UpdateInput) (*Project, error) {
	if input.Name == nil && input.Description == nil && input.Status == nil &&
		input.StartDate == nil && input.EndDate == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	project, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.Validation("Project not found")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("Project name is required")
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if project.StartDate != nil && project.EndDate != nil && *project.EndDate < *project.StartDate {
		return nil, apperrors.Validation("End date must not precede start date")
	}
	if input.Status != nil {
		if !validStatuses[*input.Status] {
			return nil, apperrors.Validation("Invalid project status: %s", *input.Status)
		}
		if *input.Status == "completed" && project.Status != "completed" {
			now := time.Now().Unix()
			project.CompletedAt = &now
		}
		project.Status = *input.Status
	}

	if err := s.repo.Update(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Complete(orgID, id string) (*Project, error) {
	project, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.Validation("Project not found")
	}
	if project.Status == "completed" {
		return nil, apperrors.State("Project is already completed")
	}

	now := time.Now().Unix()
	project.Status = "completed"
	project.CompletedAt = &now

	if err := s.repo.Update(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *Service) Delete(orgID, id string) error {
	project, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	if project == nil {
		return apperrors.Validation("Project not found")
	}
	return s.repo.Delete(id)
}

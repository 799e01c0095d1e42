package emails

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

type AttachmentInput struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type CreateInput struct {
	ClientID    string             `json:"client_id"`
	ThreadID    string             `json:"thread_id"`
	Direction   string             `json:"direction"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	FromAddress string             `json:"from_address"`
	ToAddress   string             `json:"to_address"`
	SentAt      *int64             `json:"sent_at"`
	Attachments []*AttachmentInput `json:"attachments"`
}

// Create records a message. A missing thread id starts a new thread.
func (s *Service) Create(orgID string, input *CreateInput) (*Message, error) {
	if input.ClientID == "" {
		return nil, apperrors.Validation("Email message requires a client")
	}
	if !validDirections[input.Direction] {
		return nil, apperrors.Validation("Direction must be inbound or outbound")
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.Validation("Email subject is required")
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
	sentAt := now
	if input.SentAt != nil {
		sentAt = *input.SentAt
	}
	threadID := input.ThreadID
	if threadID == "" {
		threadID = "thr_" + uuid.NewString()
	}

	message := &Message{
		ID:             "eml_" + uuid.NewString(),
		OrganizationID: orgID,
		ClientID:       input.ClientID,
		ThreadID:       threadID,
		Direction:      input.Direction,
		Subject:        strings.TrimSpace(input.Subject),
		Body:           input.Body,
		FromAddress:    input.FromAddress,
		ToAddress:      input.ToAddress,
		Status:         "sent",
		SentAt:         sentAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, a := range input.Attachments {
		if a.Filename == "" {
			return nil, apperrors.Validation("Attachment filename is required")
		}
		if a.Size < 0 {
			return nil, apperrors.Validation("Attachment size must not be negative")
		}
		message.Attachments = append(message.Attachments, &Attachment{
			ID:          "att_" + uuid.NewString(),
			MessageID:   message.ID,
			Filename:    a.Filename,
			Size:        a.Size,
			ContentType: a.ContentType,
			CreatedAt:   now,
		})
	}

	if err := s.repo.Create(message); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *Service) Get(orgID, id string) (*Message, error) {
	message, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, nil
	}
	if message.OrganizationID != orgID {
		return nil, apperrors.Scope("Email message")
	}

	attachments, err := s.repo.ListAttachments(id)
	if err != nil {
		return nil, err
	}
	message.Attachments = attachments
	return message, nil
}

func (s *Service) List(orgID, clientID, threadID, direction string, limit, offset int) ([]*Message, error) {
	if direction != "" && !validDirections[direction] {
		return nil, apperrors.Validation("Direction must be inbound or outbound")
	}
	return s.repo.List(orgID, clientID, threadID, direction, limit, offset)
}

func (s *Service) ListThreads(orgID, clientID string, limit, offset int) ([]*Thread, error) {
	return s.repo.ListThreads(orgID, clientID, limit, offset)
}

func (s *Service) UpdateStatus(orgID, id, status string) (*Message, error) {
	if !validStatuses[status] {
		return nil, apperrors.Validation("Invalid email status: %s", status)
	}

	message, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperrors.Validation("Email message not found")
	}
	if message.OrganizationID != orgID {
		return nil, apperrors.Scope("Email message")
	}

	if err := s.repo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	message.Status = status
	return message, nil
}

func (s *Service) Delete(orgID, id string) error {
	message, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if message == nil {
		return apperrors.Validation("Email message not found")
	}
	if message.OrganizationID != orgID {
		return apperrors.Scope("Email message")
	}
	return s.repo.Delete(id)
}

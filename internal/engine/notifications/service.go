package notifications

import (
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Kind         string `json:"kind"`
	ScheduledFor *int64 `json:"scheduled_for"`
}

func (s *Service) Create(orgID string, input *CreateInput) (*Notification, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.Validation("Notification title is required")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.Validation("Notification message is required")
	}

	now := time.Now().Unix()
	if input.ScheduledFor != nil && *input.ScheduledFor <= now {
		return nil, apperrors.Validation("Scheduled time must be in the future")
	}

	notification := &Notification{
		ID:             "ntf_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         input.UserID,
		Title:          title,
		Message:        message,
		Kind:           input.Kind,
		ScheduledFor:   input.ScheduledFor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *Service) Get(orgID, id string) (*Notification, error) {
	notification, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, nil
	}
	if notification.OrganizationID != orgID {
		return nil, apperrors.Scope("Notification")
	}
	return notification, nil
}

func (s *Service) List(orgID, userID string, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	return s.repo.List(orgID, userID, unreadOnly, limit, offset)
}

// MarkRead is deliberately not idempotent: marking a read notification read
// again is a state error.
func (s *Service) MarkRead(orgID, id string) (*Notification, error) {
	notification, err := s.requireNotification(orgID, id)
	if err != nil {
		return nil, err
	}
	if notification.Read() {
		return nil, apperrors.State("Notification is already read")
	}

	now := time.Now().Unix()
	notification.ReadAt = &now
	if err := s.repo.Update(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (s *Service) MarkUnread(orgID, id string) (*Notification, error) {
	notification, err := s.requireNotification(orgID, id)
	if err != nil {
		return nil, err
	}
	if !notification.Read() {
		return nil, apperrors.State("Notification is already unread")
	}

	notification.ReadAt = nil
	if err := s.repo.Update(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkAllRead flips every unread notification; already-read rows are simply
// not matched, so the bulk form never conflicts.
func (s *Service) MarkAllRead(orgID, userID string) (int64, error) {
	return s.repo.MarkAllRead(orgID, userID, time.Now().Unix())
}

func (s *Service) Delete(orgID, id string) error {
	if _, err := s.requireNotification(orgID, id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *Service) requireNotification(orgID, id string) (*Notification, error) {
	notification, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, apperrors.Validation("Notification not found")
	}
	if notification.OrganizationID != orgID {
		return nil, apperrors.Scope("Notification")
	}
	return notification, nil
}

package tasks

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "opsdesk/internal/pkg/errors"
)

const dateLayout = "2006-01-02"

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

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
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	ClientID    string `json:"client_id"`
	ProjectID   string `json:"project_id"`
	AssigneeID  string `json:"assignee_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Repeat      string `json:"repeat"`
	RepeatUntil string `json:"repeat_until"`
}

// Create validates the task and, when a recurrence is given, expands it into
// one row per interval from date through repeat_until inclusive. All expanded
// rows share the business fields and are inserted atomically.
func (s *Service) Create(orgID string, input *CreateInput) ([]*Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.Validation("Task title is required")
	}

	taskType := input.Type
	if taskType == "" {
		taskType = "internal"
	}
	if taskType != "internal" && taskType != "external" {
		return nil, apperrors.Validation("Invalid task type: %s", taskType)
	}
	if taskType == "external" && input.ClientID == "" {
		return nil, apperrors.Validation("External tasks require a client")
	}
	if taskType == "internal" && input.ClientID != "" {
		return nil, apperrors.Validation("Internal tasks must not carry a client")
	}

	if input.ClientID != "" {
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
	}

	if err := validateTimes(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	dates, err := expandDates(input.Date, input.Repeat, input.RepeatUntil)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	tasks := make([]*Task, 0, len(dates))
	for _, date := range dates {
		tasks = append(tasks, &Task{
			ID:             "tsk_" + uuid.NewString(),
			OrganizationID: orgID,
			Title:          title,
			Description:    input.Description,
			Type:           taskType,
			Status:         "pending",
			ClientID:       input.ClientID,
			ProjectID:      input.ProjectID,
			AssigneeID:     input.AssigneeID,
			Date:           date,
			StartTime:      input.StartTime,
			EndTime:        input.EndTime,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.BulkCreate(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func validateTimes(start, end string) error {
	if start != "" && !timePattern.MatchString(start) {
		return apperrors.Validation("Start time must be HH:MM")
	}
	if end != "" && !timePattern.MatchString(end) {
		return apperrors.Validation("End time must be HH:MM")
	}
	if start != "" && end != "" && end <= start {
		return apperrors.Validation("End time must be after start time")
	}
	return nil
}

// expandDates returns every occurrence date for the recurrence. Without a
// repeat it is just the base date.
func expandDates(date, repeat, repeatUntil string) ([]string, error) {
	if repeat == "" {
		return []string{date}, nil
	}
	if !validRepeats[repeat] {
		return nil, apperrors.Validation("Invalid repeat value: %s", repeat)
	}
	if date == "" || repeatUntil == "" {
		return nil, apperrors.Validation("Recurring tasks require a date and repeat_until")
	}

	start, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, apperrors.Validation("Date must be YYYY-MM-DD")
	}
	until, err := time.Parse(dateLayout, repeatUntil)
	if err != nil {
		return nil, apperrors.Validation("repeat_until must be YYYY-MM-DD")
	}
	if until.Before(start) {
		return nil, apperrors.Validation("repeat_until must not be before date")
	}

	var dates []string
	for d := start; !d.After(until); {
		dates = append(dates, d.Format(dateLayout))
		switch repeat {
		case "daily":
			d = d.AddDate(0, 0, 1)
		case "weekly":
			d = d.AddDate(0, 0, 7)
		case "biweekly":
			d = d.AddDate(0, 0, 14)
		case "monthly":
			d = d.AddDate(0, 1, 0)
		}
	}
	return dates, nil
}

func (s *Service) Get(orgID, id string) (*Task, error) {
	task, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}
	if task.OrganizationID != orgID {
		return nil, apperrors.Scope("Task")
	}
	return task, nil
}

func (s *Service) List(orgID, status, clientID, projectID, assigneeID string, limit, offset int) ([]*Task, error) {
	if status != "" && !validStatuses[status] {
		return nil, apperrors.Validation("Invalid task status: %s", status)
	}
	return s.repo.List(orgID, status, clientID, projectID, assigneeID, limit, offset)
}

type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssigneeID  *string `json:"assignee_id"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

func (s *Service) Update(orgID, id string, input *UpdateInput) (*Task, error) {
	if input.Title == nil && input.Description == nil && input.Status == nil &&
		input.AssigneeID == nil && input.Date == nil && input.StartTime == nil && input.EndTime == nil {
		return nil, apperrors.Validation("No fields to update")
	}

	task, err := s.requireTask(orgID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.Validation("Task title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.AssigneeID != nil {
		task.AssigneeID = *input.AssigneeID
	}
	if input.Date != nil {
		if _, err := time.Parse(dateLayout, *input.Date); err != nil {
			return nil, apperrors.Validation("Date must be YYYY-MM-DD")
		}
		task.Date = *input.Date
	}

	start, end := task.StartTime, task.EndTime
	if input.StartTime != nil {
		start = *input.StartTime
	}
	if input.EndTime != nil {
		end = *input.EndTime
	}
	if err := validateTimes(start, end); err != nil {
		return nil, err
	}
	task.StartTime, task.EndTime = start, end

	if input.Status != nil {
		if !validStatuses[*input.Status] {
			return nil, apperrors.Validation("Invalid task status: %s", *input.Status)
		}
		if *input.Status == "completed" {
			if task.Status == "completed" {
				return nil, apperrors.State("Task is already completed")
			}
			now := time.Now().Unix()
			task.CompletedAt = &now
		}
		task.Status = *input.Status
	}

	if err := s.repo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) Complete(orgID, id string) (*Task, error) {
	task, err := s.requireTask(orgID, id)
	if err != nil {
		return nil, err
	}
	if task.Status == "completed" {
		return nil, apperrors.State("Task is already completed")
	}

	now := time.Now().Unix()
	task.Status = "completed"
	task.CompletedAt = &now
	if err := s.repo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) Delete(orgID, id string) error {
	if _, err := s.requireTask(orgID, id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *Service) requireTask(orgID, id string) (*Task, error) {
	task, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.Validation("Task not found")
	}
	if task.OrganizationID != orgID {
		return nil, apperrors.Scope("Task")
	}
	return task, nil
}

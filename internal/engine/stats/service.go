package stats

import (
	"time"

	"opsdesk/internal/platform/models"
)

type OrgSource interface {
	GetByID(id string) (*models.Organization, error)
}

type Service struct {
	repo *Repository
	orgs OrgSource
}

func NewService(repo *Repository, orgs OrgSource) *Service {
	return &Service{repo: repo, orgs: orgs}
}

func (s *Service) orgLocation(org *models.Organization) *time.Location {
	if org.Timezone != "" {
		if loc, err := time.LoadLocation(org.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// monthBounds returns [prevStart, curStart, now] in unix seconds using
// calendar-month boundaries in the given location.
func monthBounds(now time.Time, loc *time.Location) (prevStart, curStart int64) {
	local := now.In(loc)
	cur := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	prev := cur.AddDate(0, -1, 0)
	return prev.Unix(), cur.Unix()
}

// HomeStats renders the dashboard: month-over-month movement against the
// previous calendar month, revenue against the configured goal, and a linear
// on-track heuristic comparing revenue progress to how far into the month we
// are. Stats never fail on an unresolvable org; they zero out instead.
func (s *Service) HomeStats(orgID string, now time.Time) (*HomeStats, error) {
	if orgID == "" {
		return &HomeStats{}, nil
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &HomeStats{}, nil
	}

	loc := s.orgLocation(org)
	prevStart, curStart := monthBounds(now, loc)
	nowUnix := now.Unix()

	result := &HomeStats{ClientCount: org.ClientCount}

	if result.NewClientsThisMonth, err = s.repo.CountClientsCreated(orgID, curStart, nowUnix); err != nil {
		return nil, err
	}
	prevClients, err := s.repo.CountClientsCreated(orgID, prevStart, curStart)
	if err != nil {
		return nil, err
	}
	result.NewClientsDelta = result.NewClientsThisMonth - prevClients

	if result.CompletedProjects, err = s.repo.CountProjectsCompleted(orgID, curStart, nowUnix); err != nil {
		return nil, err
	}
	prevProjects, err := s.repo.CountProjectsCompleted(orgID, prevStart, curStart)
	if err != nil {
		return nil, err
	}
	result.CompletedProjectsDelta = result.CompletedProjects - prevProjects

	if result.ApprovedQuotes, err = s.repo.CountQuotesApproved(orgID, curStart, nowUnix); err != nil {
		return nil, err
	}
	prevQuotes, err := s.repo.CountQuotesApproved(orgID, prevStart, curStart)
	if err != nil {
		return nil, err
	}
	result.ApprovedQuotesDelta = result.ApprovedQuotes - prevQuotes

	if result.PaidInvoices, err = s.repo.CountInvoicesPaid(orgID, curStart, nowUnix); err != nil {
		return nil, err
	}
	prevInvoices, err := s.repo.CountInvoicesPaid(orgID, prevStart, curStart)
	if err != nil {
		return nil, err
	}
	result.PaidInvoicesDelta = result.PaidInvoices - prevInvoices

	if result.RevenueThisMonth, err = s.repo.RevenuePaid(orgID, curStart, nowUnix); err != nil {
		return nil, err
	}

	result.RevenueGoal = org.RevenueTarget
	if result.RevenueGoal <= 0 {
		result.RevenueGoal = defaultRevenueGoal
	}
	result.RevenueGoalPercent = result.RevenueThisMonth / result.RevenueGoal * 100

	local := now.In(loc)
	daysInMonth := time.Date(local.Year(), local.Month()+1, 0, 0, 0, 0, 0, loc).Day()
	monthElapsedPercent := float64(local.Day()) / float64(daysInMonth) * 100
	result.OnTrack = result.RevenueGoalPercent >= monthElapsedPercent

	return result, nil
}

func (s *Service) UsageStats(orgID string) (*UsageStats, error) {
	if orgID == "" {
		return &UsageStats{}, nil
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &UsageStats{}, nil
	}
	return &UsageStats{
		ClientCount:       org.ClientCount,
		ESignaturesSent:   org.ESignaturesSent,
		ESignatureResetAt: org.ESignatureResetAt,
	}, nil
}

func (s *Service) JourneyProgress(orgID string) (*JourneyProgress, error) {
	if orgID == "" {
		return &JourneyProgress{}, nil
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &JourneyProgress{}, nil
	}

	progress := &JourneyProgress{MetadataCompleted: org.MetadataCompleted}
	checks := []struct {
		table string
		flag  *bool
	}{
		{"clients", &progress.HasClient},
		{"projects", &progress.HasProject},
		{"quotes", &progress.HasQuote},
		{"invoices", &progress.HasInvoice},
		{"tasks", &progress.HasTask},
	}
	for _, check := range checks {
		has, err := s.repo.HasAny(check.table, orgID)
		if err != nil {
			return nil, err
		}
		*check.flag = has
	}
	return progress, nil
}

func (s *Service) ClientsByDateRange(orgID string, from, to int64) (*DateRangeStats, error) {
	return s.creationsByDateRange("clients", orgID, from, to)
}

func (s *Service) ProjectsByDateRange(orgID string, from, to int64) (*DateRangeStats, error) {
	return s.creationsByDateRange("projects", orgID, from, to)
}

func (s *Service) InvoicesByDateRange(orgID string, from, to int64) (*DateRangeStats, error) {
	return s.creationsByDateRange("invoices", orgID, from, to)
}

func (s *Service) creationsByDateRange(table, orgID string, from, to int64) (*DateRangeStats, error) {
	if orgID == "" {
		return &DateRangeStats{}, nil
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &DateRangeStats{}, nil
	}
	loc := s.orgLocation(org)

	baseline, err := s.repo.CountCreatedBefore(table, orgID, from)
	if err != nil {
		return nil, err
	}
	timestamps, err := s.repo.CreationTimestamps(table, orgID, from, to)
	if err != nil {
		return nil, err
	}

	result := &DateRangeStats{BaselineCount: baseline, TotalInRange: len(timestamps)}
	result.Days = bucketByDay(timestamps, nil, loc)
	return result, nil
}

// RevenueByDateRange buckets paid invoice totals; baseline counts invoices
// paid before the range start.
func (s *Service) RevenueByDateRange(orgID string, from, to int64) (*DateRangeStats, error) {
	if orgID == "" {
		return &DateRangeStats{}, nil
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return &DateRangeStats{}, nil
	}
	loc := s.orgLocation(org)

	baseline, err := s.repo.CountPaidInvoicesBefore(orgID, from)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.PaidInvoiceEvents(orgID, from, to)
	if err != nil {
		return nil, err
	}

	timestamps := make([]int64, len(events))
	values := make([]float64, len(events))
	for i, e := range events {
		timestamps[i] = e.At
		values[i] = e.Total
	}

	result := &DateRangeStats{BaselineCount: baseline, TotalInRange: len(events)}
	result.Days = bucketByDay(timestamps, values, loc)
	return result, nil
}

// bucketByDay groups events by local calendar day in the org timezone.
// Input timestamps are ascending, so bucket order follows event order.
func bucketByDay(timestamps []int64, values []float64, loc *time.Location) []*DayBucket {
	var buckets []*DayBucket
	index := make(map[string]*DayBucket)
	for i, ts := range timestamps {
		day := time.Unix(ts, 0).In(loc).Format("2006-01-02")
		bucket, ok := index[day]
		if !ok {
			bucket = &DayBucket{Date: day}
			index[day] = bucket
			buckets = append(buckets, bucket)
		}
		bucket.Count++
		if values != nil {
			bucket.Value += values[i]
		}
	}
	return buckets
}

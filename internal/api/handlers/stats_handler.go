package handlers

import (
	"net/http"
	"strconv"
	"time"

	"opsdesk/internal/api/middleware"
	"opsdesk/internal/engine/stats"
	"opsdesk/internal/pkg/errors"
)

// StatsHandler runs behind the optional scope middleware: a caller without a
// resolvable org gets zeroed structures, never an error.
type StatsHandler struct {
	service *stats.Service
}

func NewStatsHandler(service *stats.Service) *StatsHandler {
	return &StatsHandler{service: service}
}

func orgIDFrom(r *http.Request) string {
	if scope := middleware.ScopeFrom(r); scope != nil {
		return scope.OrgID
	}
	return ""
}

func (h *StatsHandler) Home(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.HomeStats(orgIDFrom(r), time.Now())
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *StatsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.UsageStats(orgIDFrom(r))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *StatsHandler) Journey(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.JourneyProgress(orgIDFrom(r))
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// dateRange reads from/to unix-seconds query params, defaulting to the last
// 30 days.
func dateRange(r *http.Request) (int64, int64) {
	now := time.Now().Unix()
	from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if to == 0 {
		to = now
	}
	if from == 0 {
		from = to - 30*24*3600
	}
	return from, to
}

func (h *StatsHandler) ClientsByDateRange(w http.ResponseWriter, r *http.Request) {
	h.byDateRange(w, r, h.service.ClientsByDateRange)
}

func (h *StatsHandler) ProjectsByDateRange(w http.ResponseWriter, r *http.Request) {
	h.byDateRange(w, r, h.service.ProjectsByDateRange)
}

func (h *StatsHandler) InvoicesByDateRange(w http.ResponseWriter, r *http.Request) {
	h.byDateRange(w, r, h.service.InvoicesByDateRange)
}

func (h *StatsHandler) RevenueByDateRange(w http.ResponseWriter, r *http.Request) {
	h.byDateRange(w, r, h.service.RevenueByDateRange)
}

func (h *StatsHandler) byDateRange(w http.ResponseWriter, r *http.Request, fn func(orgID string, from, to int64) (*stats.DateRangeStats, error)) {
	from, to := dateRange(r)
	result, err := fn(orgIDFrom(r), from, to)
	if err != nil {
		errors.WriteAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

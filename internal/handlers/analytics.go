package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"studyden-backend/internal/analytics"
	"studyden-backend/internal/middleware"
	"studyden-backend/internal/repository"
)

type AnalyticsHandler struct {
	repo *repository.SessionRepo
}

func NewAnalyticsHandler(repo *repository.SessionRepo) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo}
}

// Summary returns the whole dashboard block in one call.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics.Summarize(sessions, time.Now()))
}

// TotalMinutes sums completed minutes over an optional RFC3339 from/to
// range; without parameters it covers the current week.
func (h *AnalyticsHandler) TotalMinutes(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	now := time.Now()
	from, to, err := parseRange(r, now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "from/to must be RFC3339 timestamps with from before to", r))
		return
	}

	sessions, listErr := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if listErr != nil {
		handleServiceError(w, r, listErr)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":          from,
		"to":            to,
		"total_minutes": analytics.TotalMinutes(sessions, from, to),
	})
}

func (h *AnalyticsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak": analytics.Streak(sessions, time.Now()),
	})
}

func (h *AnalyticsHandler) TopCourses(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	n := analytics.DefaultTopCourses
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 50", r))
			return
		}
		n = parsed
	}

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": analytics.TopCourses(sessions, n),
	})
}

func (h *AnalyticsHandler) TimeOfDay(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	buckets := analytics.TimeOfDayBuckets(sessions, time.Local)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"buckets":      buckets,
		"focus_window": buckets.FocusWindow(),
	})
}

func (h *AnalyticsHandler) CompletionRate(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	sessions, err := h.repo.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// completion_rate stays null when nothing was planned this week; that
	// is not the same thing as 0%.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completion_rate": analytics.CompletionRate(sessions, time.Now()),
	})
}

func parseRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")

	if fromRaw == "" && toRaw == "" {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		from := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
		return from, from.AddDate(0, 0, 7), nil
	}

	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, errInvalidRange
	}
	return from, to, nil
}

var errInvalidRange = errors.New("from must be before to")

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyden-backend/internal/models"
	"studyden-backend/internal/session"
)

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation error",
			err:        &session.ValidationError{Fields: map[string]string{"planned_duration_minutes": "required"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "invalid state",
			err:        &session.InvalidStateError{Message: "Session has already ended"},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_STATE",
		},
		{
			name:       "conflict",
			err:        &session.ConflictError{Message: "A study session is already running in this workspace"},
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "not found",
			err:        &session.NotFoundError{Message: "No active study session"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "persistence error is retryable",
			err:        &session.PersistenceError{Op: "finish session", Err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORAGE_ERROR",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/start", nil)
			req.Header.Set("X-Request-ID", "req-123")

			handleServiceError(rr, req, tc.err)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp models.ErrorResponse
			require.NoError(t, decodeBody(rr, &resp))
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			assert.Equal(t, "req-123", resp.Error.RequestID)
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/start", nil)

	handleServiceError(rr, req, &session.ValidationError{Fields: map[string]string{
		"mood": "Mood must be LOW, OKAY or HIGH",
	}})

	var resp models.ErrorResponse
	require.NoError(t, decodeBody(rr, &resp))
	assert.Equal(t, "Mood must be LOW, OKAY or HIGH", resp.Error.Fields["mood"])
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, decodeBody(rr, &body))
	assert.Equal(t, "ok", body["message"])
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC) // Thursday

	t.Run("defaults to current week", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/total-minutes", nil)

		from, to, err := parseRange(req, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from) // Monday
		assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), to)
	})

	t.Run("explicit range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/analytics/total-minutes?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z", nil)

		from, to, err := parseRange(req, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), to)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/analytics/total-minutes?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", nil)

		_, _, err := parseRange(req, now)
		assert.Error(t, err)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/analytics/total-minutes?from=yesterday&to=today", nil)

		_, _, err := parseRange(req, now)
		assert.Error(t, err)
	})
}

func TestCourseRequestValidate(t *testing.T) {
	tests := []struct {
		name       string
		req        courseRequest
		wantFields []string
	}{
		{"valid", courseRequest{Code: "CS101", Title: "Algorithms"}, nil},
		{"missing code", courseRequest{Title: "Algorithms"}, []string{"code"}},
		{"missing title", courseRequest{Code: "CS101"}, []string{"title"}},
		{"whitespace only", courseRequest{Code: "  ", Title: "\t"}, []string{"code", "title"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fieldErrors := tc.req.validate()
			assert.Len(t, fieldErrors, len(tc.wantFields))
			for _, f := range tc.wantFields {
				assert.Contains(t, fieldErrors, f)
			}
		})
	}
}

func TestExamRequestValidate(t *testing.T) {
	valid := examRequest{Title: "Midterm", StartsAt: time.Now().Add(48 * time.Hour)}
	assert.Empty(t, valid.validate())

	missing := examRequest{}
	fieldErrors := missing.validate()
	assert.Contains(t, fieldErrors, "title")
	assert.Contains(t, fieldErrors, "starts_at")
}

func decodeBody(rr *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rr.Body).Decode(v)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyden-backend/internal/middleware"
	"studyden-backend/internal/models"
	"studyden-backend/internal/session"
)

// memStore backs the manager with the same contract the postgres repository
// honors: one ACTIVE row per workspace, terminal rows immutable.
type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.StudySession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID]*models.StudySession)}
}

func (m *memStore) Create(ctx context.Context, s *models.StudySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.WorkspaceID == s.WorkspaceID && existing.Status == models.SessionActive {
			return &session.ConflictError{Message: "A study session is already running in this workspace"}
		}
	}
	s.ID = uuid.New()
	snap := *s
	m.sessions[s.ID] = &snap
	return nil
}

func (m *memStore) Finish(ctx context.Context, id uuid.UUID, status string, endedAt time.Time, durationMinutes int, notes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return &session.NotFoundError{Message: "Session not found"}
	}
	if s.Status != models.SessionActive {
		return &session.InvalidStateError{Message: "Session has already ended"}
	}
	s.Status = status
	s.EndedAt = &endedAt
	s.DurationMinutes = &durationMinutes
	if notes != nil {
		s.Notes = notes
	}
	return nil
}

func (m *memStore) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.WorkspaceID != workspaceID {
		return nil, &session.NotFoundError{Message: "Session not found"}
	}
	snap := *s
	return &snap, nil
}

func (m *memStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudySession
	for _, s := range m.sessions {
		if s.WorkspaceID == workspaceID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type noopQueue struct{}

func (noopQueue) Enqueue(ctx context.Context, job models.FinalizeJob) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, workspaceID uuid.UUID, msg models.WSMessage) {}

func newTestSessionHandler() (*SessionHandler, *session.Manager) {
	manager := session.NewManager(newMemStore(), noopQueue{}, noopPublisher{})
	manager.TickInterval = time.Hour
	return NewSessionHandler(manager, nil), manager
}

func doRequest(h http.HandlerFunc, method, target string, workspaceID uuid.UUID, body interface{}, params map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.WorkspaceIDKey, workspaceID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func TestSessionHandler_StartAndComplete(t *testing.T) {
	h, manager := newTestSessionHandler()
	defer manager.Shutdown()
	workspaceID := uuid.New()

	rr := doRequest(h.Start, http.MethodPost, "/api/v1/sessions/start", workspaceID,
		map[string]interface{}{"planned_duration_minutes": 25}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var state models.SessionState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.Equal(t, models.SessionActive, state.Session.Status)
	assert.Equal(t, 25*60, state.RemainingSeconds)

	rr = doRequest(h.Complete, http.MethodPost, "/api/v1/sessions/x/complete", workspaceID,
		map[string]string{"notes": "read two chapters"},
		map[string]string{"id": state.Session.ID.String()})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Session models.StudySession `json:"session"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, models.SessionCompleted, resp.Session.Status)
	require.NotNil(t, resp.Session.Notes)
	assert.Equal(t, "read two chapters", *resp.Session.Notes)
}

func TestSessionHandler_StartRejectsBadDuration(t *testing.T) {
	h, _ := newTestSessionHandler()

	rr := doRequest(h.Start, http.MethodPost, "/api/v1/sessions/start", uuid.New(),
		map[string]interface{}{"planned_duration_minutes": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "planned_duration_minutes")
}

func TestSessionHandler_SecondStartConflicts(t *testing.T) {
	h, manager := newTestSessionHandler()
	defer manager.Shutdown()
	workspaceID := uuid.New()

	rr := doRequest(h.Start, http.MethodPost, "/api/v1/sessions/start", workspaceID,
		map[string]interface{}{"planned_duration_minutes": 25}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(h.Start, http.MethodPost, "/api/v1/sessions/start", workspaceID,
		map[string]interface{}{"planned_duration_minutes": 50}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestSessionHandler_PauseResume(t *testing.T) {
	h, manager := newTestSessionHandler()
	defer manager.Shutdown()
	workspaceID := uuid.New()

	rr := doRequest(h.Start, http.MethodPost, "/api/v1/sessions/start", workspaceID,
		map[string]interface{}{"planned_duration_minutes": 25}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var state models.SessionState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	params := map[string]string{"id": state.Session.ID.String()}

	rr = doRequest(h.Pause, http.MethodPost, "/api/v1/sessions/x/pause", workspaceID, nil, params)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.True(t, state.Paused)

	rr = doRequest(h.Resume, http.MethodPost, "/api/v1/sessions/x/resume", workspaceID, nil, params)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
	assert.False(t, state.Paused)
}

func TestSessionHandler_FinishWithoutActiveSession(t *testing.T) {
	h, _ := newTestSessionHandler()

	rr := doRequest(h.Cancel, http.MethodPost, "/api/v1/sessions/x/cancel", uuid.New(), nil,
		map[string]string{"id": uuid.New().String()})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_InvalidSessionID(t *testing.T) {
	h, _ := newTestSessionHandler()

	rr := doRequest(h.Pause, http.MethodPost, "/api/v1/sessions/x/pause", uuid.New(), nil,
		map[string]string{"id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

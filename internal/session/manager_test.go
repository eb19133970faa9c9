package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyden-backend/internal/models"
)

func newTestManager(store *fakeStore) *Manager {
	m := NewManager(store, &fakeQueue{}, &fakePublisher{})
	// Keep the real timer inert; tests drive ticks by hand.
	m.TickInterval = time.Hour
	return m
}

func TestManager_StartValidation(t *testing.T) {
	m := newTestManager(newFakeStore())
	badMood := "GREAT"

	tests := []struct {
		name        string
		workspaceID uuid.UUID
		req         models.StartSessionRequest
		wantField   string
	}{
		{
			name:        "missing workspace",
			workspaceID: uuid.Nil,
			req:         models.StartSessionRequest{PlannedDurationMinutes: 25},
			wantField:   "workspace_id",
		},
		{
			name:        "zero duration",
			workspaceID: uuid.New(),
			req:         models.StartSessionRequest{PlannedDurationMinutes: 0},
			wantField:   "planned_duration_minutes",
		},
		{
			name:        "negative duration",
			workspaceID: uuid.New(),
			req:         models.StartSessionRequest{PlannedDurationMinutes: -5},
			wantField:   "planned_duration_minutes",
		},
		{
			name:        "unknown mood",
			workspaceID: uuid.New(),
			req:         models.StartSessionRequest{PlannedDurationMinutes: 25, Mood: &badMood},
			wantField:   "mood",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Start(context.Background(), tc.workspaceID, tc.req)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tc.wantField)
		})
	}
}

func TestManager_StartDropsExamWhenTaskSet(t *testing.T) {
	m := newTestManager(newFakeStore())
	taskID := uuid.New()
	examID := uuid.New()

	state, err := m.Start(context.Background(), uuid.New(), models.StartSessionRequest{
		TaskID:                 &taskID,
		ExamID:                 &examID,
		PlannedDurationMinutes: 25,
	})
	require.NoError(t, err)

	require.NotNil(t, state.Session.TaskID)
	assert.Equal(t, taskID, *state.Session.TaskID)
	assert.Nil(t, state.Session.ExamID)
}

func TestManager_SecondStartConflicts(t *testing.T) {
	m := newTestManager(newFakeStore())
	defer m.Shutdown()
	workspaceID := uuid.New()

	_, err := m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	require.NoError(t, err)

	var ce *ConflictError
	_, err = m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 50})
	require.Error(t, err)
	assert.True(t, errors.As(err, &ce))

	// A different workspace is unaffected.
	_, err = m.Start(context.Background(), uuid.New(), models.StartSessionRequest{PlannedDurationMinutes: 25})
	assert.NoError(t, err)
}

func TestManager_StorageConflictSurfacesAsConflict(t *testing.T) {
	store := newFakeStore()
	workspaceID := uuid.New()

	// An ACTIVE row already in storage (left by another server node).
	require.NoError(t, store.Create(context.Background(), &models.StudySession{
		WorkspaceID:            workspaceID,
		Status:                 models.SessionActive,
		PlannedDurationMinutes: 25,
		StartedAt:              time.Now().UTC(),
	}))

	m := newTestManager(store)
	var ce *ConflictError
	_, err := m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	require.Error(t, err)
	assert.True(t, errors.As(err, &ce))
}

func TestManager_CompleteRemovesLiveSession(t *testing.T) {
	m := newTestManager(newFakeStore())
	workspaceID := uuid.New()

	state, err := m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	require.NoError(t, err)

	sess, err := m.Complete(context.Background(), workspaceID, state.Session.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)

	// The slot is free again.
	_, err = m.Active(workspaceID)
	var nfe *NotFoundError
	require.Error(t, err)
	assert.True(t, errors.As(err, &nfe))

	_, err = m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	assert.NoError(t, err)
	m.Shutdown()
}

func TestManager_LookupRejectsWrongSessionID(t *testing.T) {
	m := newTestManager(newFakeStore())
	defer m.Shutdown()
	workspaceID := uuid.New()

	_, err := m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	require.NoError(t, err)

	var nfe *NotFoundError
	_, err = m.Pause(workspaceID, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.As(err, &nfe))

	_, err = m.Complete(context.Background(), workspaceID, uuid.New(), nil)
	require.Error(t, err)
	assert.True(t, errors.As(err, &nfe))
}

func TestManager_ActiveReflectsPause(t *testing.T) {
	m := newTestManager(newFakeStore())
	defer m.Shutdown()
	workspaceID := uuid.New()

	started, err := m.Start(context.Background(), workspaceID, models.StartSessionRequest{PlannedDurationMinutes: 25})
	require.NoError(t, err)
	assert.Equal(t, 25*60, started.RemainingSeconds)
	assert.False(t, started.Paused)

	paused, err := m.Pause(workspaceID, started.Session.ID)
	require.NoError(t, err)
	assert.True(t, paused.Paused)

	state, err := m.Active(workspaceID)
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Equal(t, models.SessionActive, state.Session.Status)
}

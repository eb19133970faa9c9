package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyden-backend/internal/models"
)

// Manager is the entry point handlers talk to. It keeps at most one live
// Controller per workspace; the matching storage invariant is the partial
// unique index on ACTIVE rows, so a second tab racing past the in-memory
// check still gets a ConflictError from Create.
type Manager struct {
	store  Store
	queue  FinalizeQueue
	events Publisher

	// Now and TickInterval are swappable in tests.
	Now          func() time.Time
	TickInterval time.Duration

	mu   sync.Mutex
	live map[uuid.UUID]*Controller // keyed by workspace ID
}

func NewManager(store Store, queue FinalizeQueue, events Publisher) *Manager {
	return &Manager{
		store:        store,
		queue:        queue,
		events:       events,
		Now:          time.Now,
		TickInterval: time.Second,
		live:         make(map[uuid.UUID]*Controller),
	}
}

// Start validates the request, creates the ACTIVE row and arms the timer.
// When both a task and an exam are referenced the task wins and the exam
// reference is dropped; a session targets at most one of the two.
func (m *Manager) Start(ctx context.Context, workspaceID uuid.UUID, req models.StartSessionRequest) (*models.SessionState, error) {
	fieldErrors := make(map[string]string)
	if workspaceID == uuid.Nil {
		fieldErrors["workspace_id"] = "Workspace is required"
	}
	if req.PlannedDurationMinutes <= 0 {
		fieldErrors["planned_duration_minutes"] = "Planned duration must be a positive number of minutes"
	}
	if req.Mood != nil && !models.ValidMood(*req.Mood) {
		fieldErrors["mood"] = "Mood must be LOW, OKAY or HIGH"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if req.TaskID != nil && req.ExamID != nil {
		req.ExamID = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ctrl, ok := m.live[workspaceID]; ok && !ctrl.isDone() {
		return nil, &ConflictError{Message: "A study session is already running in this workspace"}
	}

	sess := &models.StudySession{
		WorkspaceID:            workspaceID,
		CourseID:               req.CourseID,
		TaskID:                 req.TaskID,
		ExamID:                 req.ExamID,
		Status:                 models.SessionActive,
		PlannedDurationMinutes: req.PlannedDurationMinutes,
		StartedAt:              m.Now().UTC(),
		Mood:                   req.Mood,
	}

	if err := m.store.Create(ctx, sess); err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &PersistenceError{Op: "create session", Err: err}
	}

	ctrl := newController(m.store, m.queue, m.events, m.Now, sess)
	ctrl.timer = NewTimer(m.TickInterval, ctrl.Tick)
	ctrl.timer.Arm()
	m.live[workspaceID] = ctrl

	ctrl.mu.Lock()
	ctrl.publishLocked(models.EventSessionStarted)
	ctrl.mu.Unlock()

	state := ctrl.State()
	return &state, nil
}

func (m *Manager) Pause(workspaceID, sessionID uuid.UUID) (*models.SessionState, error) {
	ctrl, err := m.lookup(workspaceID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Pause(); err != nil {
		return nil, err
	}
	state := ctrl.State()
	return &state, nil
}

func (m *Manager) Resume(workspaceID, sessionID uuid.UUID) (*models.SessionState, error) {
	ctrl, err := m.lookup(workspaceID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Resume(); err != nil {
		return nil, err
	}
	state := ctrl.State()
	return &state, nil
}

func (m *Manager) Complete(ctx context.Context, workspaceID, sessionID uuid.UUID, notes *string) (*models.StudySession, error) {
	return m.finalize(ctx, workspaceID, sessionID, notes, (*Controller).Complete)
}

func (m *Manager) Interrupt(ctx context.Context, workspaceID, sessionID uuid.UUID, notes *string) (*models.StudySession, error) {
	return m.finalize(ctx, workspaceID, sessionID, notes, (*Controller).Interrupt)
}

func (m *Manager) Cancel(ctx context.Context, workspaceID, sessionID uuid.UUID, notes *string) (*models.StudySession, error) {
	return m.finalize(ctx, workspaceID, sessionID, notes, (*Controller).Cancel)
}

func (m *Manager) finalize(ctx context.Context, workspaceID, sessionID uuid.UUID, notes *string, op func(*Controller, context.Context, *string) error) (*models.StudySession, error) {
	ctrl, err := m.lookup(workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := op(ctrl, ctx, notes); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.live[workspaceID] == ctrl {
		delete(m.live, workspaceID)
	}
	m.mu.Unlock()

	state := ctrl.State()
	return state.Session, nil
}

// Active returns the live countdown for a workspace, or a NotFoundError
// when nothing is running.
func (m *Manager) Active(workspaceID uuid.UUID) (*models.SessionState, error) {
	m.mu.Lock()
	ctrl, ok := m.live[workspaceID]
	m.mu.Unlock()

	if !ok || ctrl.isDone() {
		return nil, &NotFoundError{Message: "No active study session"}
	}
	state := ctrl.State()
	return &state, nil
}

func (m *Manager) lookup(workspaceID, sessionID uuid.UUID) (*Controller, error) {
	m.mu.Lock()
	ctrl, ok := m.live[workspaceID]
	m.mu.Unlock()

	if !ok {
		return nil, &NotFoundError{Message: "No active study session"}
	}
	if ctrl.sess.ID != sessionID {
		return nil, &NotFoundError{Message: fmt.Sprintf("Session %s is not the active session", sessionID)}
	}
	return ctrl, nil
}

// Shutdown disarms every live timer. Rows stay ACTIVE in storage; the
// reaper or an explicit user action closes them out later.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ctrl := range m.live {
		if ctrl.timer != nil {
			ctrl.timer.Disarm()
		}
	}
}

package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyden-backend/internal/models"
)

// Store is the narrow persistence contract the engine runs against. The
// postgres implementation lives in internal/repository; tests use an
// in-memory fake.
//
// Create must reject a second ACTIVE row for the same workspace with a
// ConflictError. Finish must reject a write against an already-terminal row
// with an InvalidStateError; it is required to be idempotent enough that a
// retried finalize of the same session does not corrupt history.
type Store interface {
	Create(ctx context.Context, s *models.StudySession) error
	Finish(ctx context.Context, id uuid.UUID, status string, endedAt time.Time, durationMinutes int, notes *string) error
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*models.StudySession, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.StudySession, error)
}

// Publisher fans session lifecycle events out to connected clients.
type Publisher interface {
	Publish(ctx context.Context, workspaceID uuid.UUID, msg models.WSMessage)
}

// FinalizeQueue is the durable fallback for terminal writes. Enqueued jobs
// are drained by the worker pool until the row is written.
type FinalizeQueue interface {
	Enqueue(ctx context.Context, job models.FinalizeJob) error
}

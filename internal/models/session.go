package models

import (
	"time"

	"github.com/google/uuid"
)

// Session status values. There is no persisted PLANNED or PAUSED state:
// a row exists only once the timer starts, and pausing is an in-memory
// suspension that leaves the row ACTIVE.
const (
	SessionActive      = "ACTIVE"
	SessionCompleted   = "COMPLETED"
	SessionInterrupted = "INTERRUPTED"
	SessionCancelled   = "CANCELLED"
)

const (
	MoodLow  = "LOW"
	MoodOkay = "OKAY"
	MoodHigh = "HIGH"
)

type StudySession struct {
	ID                     uuid.UUID  `json:"id"`
	WorkspaceID            uuid.UUID  `json:"workspace_id"`
	CourseID               *uuid.UUID `json:"course_id,omitempty"`
	TaskID                 *uuid.UUID `json:"task_id,omitempty"`
	ExamID                 *uuid.UUID `json:"exam_id,omitempty"`
	Status                 string     `json:"status"`
	PlannedDurationMinutes int        `json:"planned_duration_minutes"`
	DurationMinutes        *int       `json:"duration_minutes,omitempty"`
	StartedAt              time.Time  `json:"started_at"`
	EndedAt                *time.Time `json:"ended_at,omitempty"`
	Notes                  *string    `json:"notes,omitempty"`
	Mood                   *string    `json:"mood,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`

	// Display decoration, populated by list queries only.
	CourseCode  *string `json:"course_code,omitempty"`
	CourseTitle *string `json:"course_title,omitempty"`
	TaskTitle   *string `json:"task_title,omitempty"`
	ExamTitle   *string `json:"exam_title,omitempty"`
}

// IsTerminal reports whether the session has left ACTIVE for good.
func (s *StudySession) IsTerminal() bool {
	return s.Status != SessionActive
}

func ValidMood(m string) bool {
	return m == MoodLow || m == MoodOkay || m == MoodHigh
}

type StartSessionRequest struct {
	CourseID               *uuid.UUID `json:"course_id"`
	TaskID                 *uuid.UUID `json:"task_id"`
	ExamID                 *uuid.UUID `json:"exam_id"`
	PlannedDurationMinutes int        `json:"planned_duration_minutes"`
	Mood                   *string    `json:"mood"`
}

type FinishSessionRequest struct {
	Notes *string `json:"notes"`
}

// SessionState is the live countdown view returned while a session runs.
type SessionState struct {
	Session          *StudySession `json:"session"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Paused           bool          `json:"paused"`
}

// FinalizeJob is the durable retry record for a terminal write that could
// not reach storage on the first attempt.
type FinalizeJob struct {
	SessionID       uuid.UUID `json:"session_id"`
	WorkspaceID     uuid.UUID `json:"workspace_id"`
	Status          string    `json:"status"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           *string   `json:"notes,omitempty"`
	RetryCount      int       `json:"retry_count"`
}

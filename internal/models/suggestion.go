package models

import "github.com/google/uuid"

// SessionSuggestion is what the AI planner proposes for the next focus
// session. All references are optional; duration and reason always come
// back filled.
type SessionSuggestion struct {
	CourseID               *uuid.UUID `json:"course_id,omitempty"`
	TaskID                 *uuid.UUID `json:"task_id,omitempty"`
	ExamID                 *uuid.UUID `json:"exam_id,omitempty"`
	PlannedDurationMinutes int        `json:"planned_duration_minutes"`
	Reason                 string     `json:"reason"`
}

type SessionSummaryRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Notes     string    `json:"notes"`
}

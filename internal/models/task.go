package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskOpen = "open"
	TaskDone = "done"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	CourseID    *uuid.UUID `json:"course_id,omitempty"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
